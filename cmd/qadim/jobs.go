package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

func newJobsCmd() *cobra.Command {
	var (
		queueName string
		status    string
		failed    bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filter := entities.JobStatus(status)
			if failed {
				filter = entities.JobFailed
			}

			return withDeps(func(d *Deps) error {
				jobs, err := d.DB.ListJobs(ctx, queueName, filter, limit)
				if err != nil {
					return fmt.Errorf("listing jobs: %w", err)
				}
				if len(jobs) == 0 {
					fmt.Println("No jobs found.")
					return nil
				}
				for _, j := range jobs {
					fmt.Printf("%s  %-20s %-10s attempt %d/%d  enqueued %s\n",
						j.ID, j.Queue, j.Status, j.AttemptCount, j.MaxAttempts,
						j.EnqueuedAt.Format(time.RFC3339))
					if j.LastError != "" {
						fmt.Printf("   last error: %s\n", j.LastError)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&queueName, "queue", "q", "", "Filter by queue name")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (PENDING, ACTIVE, COMPLETED, FAILED)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Shortcut for --status FAILED")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of results")

	return cmd
}
