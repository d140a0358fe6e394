package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hirelens/hirelens/pkg/logx"
)

var rootCmd = &cobra.Command{
	Use:          "hirelens",
	Short:        "Resume ingestion, search and analysis service",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobsCmd)
}

func main() {
	// Optional .env for local development; production sets real env vars.
	_ = godotenv.Load()

	defer logx.Sync()
	if err := rootCmd.Execute(); err != nil {
		logx.Errorf("command failed: %v", err)
		os.Exit(1)
	}
}
