package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/resume/resumeinfra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Operator commands against the job store and queue",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent processing jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		return runJobsList(cmd.Context(), status, limit)
	},
}

var jobsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop every queued, scheduled and in-flight task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsPurge(cmd.Context())
	},
}

func init() {
	jobsListCmd.Flags().String("status", "", "filter by status (pending|processing|completed|failed)")
	jobsListCmd.Flags().Int("limit", 20, "maximum jobs to print")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsPurgeCmd)
}

func runJobsList(ctx context.Context, status string, limit int) error {
	cfg := loadConfig()
	client, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	store := resumeinfra.NewRedisJobStore(client, resumeinfra.RedisJobStoreConfig{
		Retention: time.Duration(cfg.JobRetentionDays) * 24 * time.Hour,
	})
	page, err := store.ListJobs(ctx, resume.JobStatus(status), kernel.PaginationOptions{
		Page:     1,
		PageSize: limit,
	})
	if err != nil {
		return err
	}
	if page.Empty {
		fmt.Println("no jobs found")
		return nil
	}

	fmt.Printf("%-38s %-12s %-22s %s\n", "JOB ID", "STATUS", "UPDATED", "ERROR")
	for _, job := range page.Items {
		fmt.Printf("%-38s %-12s %-22s %s\n",
			job.JobID.String(),
			job.Status,
			job.UpdatedAt.Format(time.RFC3339),
			job.Error,
		)
	}
	fmt.Printf("\n%d of %d jobs\n", len(page.Items), page.Page.Total)
	return nil
}

func runJobsPurge(ctx context.Context) error {
	cfg := loadConfig()
	client, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	queue := resumeinfra.NewRedisQueue(client, resumeinfra.RedisQueueConfig{
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxAttempts:       cfg.MaxAttempts,
	})
	if err := queue.Purge(ctx); err != nil {
		return err
	}
	fmt.Println("queue purged")
	return nil
}

func openRedis(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}
