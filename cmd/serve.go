package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, ingestion workers and queue maintenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg := loadConfig()
	logx.SetLevel(cfg.logLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := newContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	app := newServer(container)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.Workers.Run(ctx)
	})
	g.Go(func() error {
		logx.Infof("API listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		return serveMetrics(ctx, cfg.MetricsAddr, container.Metrics)
	})
	g.Go(func() error {
		<-ctx.Done()
		logx.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	err = g.Wait()
	logx.Info("server exited")
	return err
}

// serveMetrics exposes the Prometheus registry on its own listener so
// scrapes never contend with API traffic.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
