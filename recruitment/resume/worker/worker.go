// Package worker runs the ingestion consumers and the queue maintenance
// loops next to them.
package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/resume/resumesrv"
)

const (
	dequeueTimeout = 30 * time.Second

	retryMoverInterval = 5 * time.Second
	cleanupInterval    = 60 * time.Second
	gaugeInterval      = 15 * time.Second
)

// Pool consumes ingestion tasks with a fixed number of workers and keeps
// the retry and in-flight structures healthy in the background.
type Pool struct {
	service *resumesrv.Service
	queue   resume.TaskQueue
	metrics *metrics.Metrics
	workers int
}

func NewPool(service *resumesrv.Service, queue resume.TaskQueue, m *metrics.Metrics, workers int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	return &Pool{
		service: service,
		queue:   queue,
		metrics: m,
		workers: workers,
	}
}

// Run blocks until the context is cancelled and every worker has drained
// its current task.
func (p *Pool) Run(ctx context.Context) error {
	logx.Infow("starting resume workers", "workers", p.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.consume(ctx, id)
			return nil
		})
	}
	g.Go(func() error {
		return p.maintain(ctx)
	})
	return g.Wait()
}

func (p *Pool) consume(ctx context.Context, id int) {
	logx.Infow("worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			logx.Infow("worker stopping", "worker", id)
			return
		default:
		}

		task, err := p.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.Errorw("dequeue failed", "worker", id, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		if err := p.service.ProcessTask(ctx, *task); err != nil {
			logx.Errorw("task processing failed",
				"worker", id,
				"job_id", task.JobID.String(),
				"error", err,
			)
		}
	}
}

// maintain schedules the periodic queue chores: promoting due retries,
// requeueing expired in-flight tasks and publishing depth gauges.
func (p *Pool) maintain(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(retryMoverInterval),
		gocron.NewTask(func() { p.promoteRetries(ctx) }),
	); err != nil {
		return err
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(cleanupInterval),
		gocron.NewTask(func() { p.cleanupExpired(ctx) }),
	); err != nil {
		return err
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(gaugeInterval),
		gocron.NewTask(func() { p.publishDepth(ctx) }),
	); err != nil {
		return err
	}

	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}

func (p *Pool) promoteRetries(ctx context.Context) {
	moved, err := p.queue.ProcessRetries(ctx)
	if err != nil {
		logx.Errorw("retry promotion failed", "error", err)
		return
	}
	if moved > 0 {
		logx.Infow("promoted due retries", "count", moved)
	}
}

func (p *Pool) cleanupExpired(ctx context.Context) {
	requeued, err := p.queue.CleanupExpired(ctx)
	if err != nil {
		logx.Errorw("in-flight cleanup failed", "error", err)
		return
	}
	if requeued > 0 {
		logx.Warnw("requeued expired in-flight tasks", "count", requeued)
	}
}

func (p *Pool) publishDepth(ctx context.Context) {
	stats, err := p.queue.Stats(ctx)
	if err != nil {
		logx.Debugw("queue stats failed", "error", err)
		return
	}
	p.metrics.SetQueueDepth("main", float64(stats.Ready))
	p.metrics.SetQueueDepth("retries", float64(stats.Retries))
	p.metrics.SetQueueDepth("in_flight", float64(stats.InFlight))
}
