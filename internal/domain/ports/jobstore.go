package ports

import (
	"context"
	"time"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// JobStore defines durable storage for queued jobs. Implementations must make
// Claim mutually exclusive: two concurrent claims never return the same job.
type JobStore interface {
	// Enqueue appends a job in PENDING status.
	Enqueue(ctx context.Context, job *entities.Job) error

	// Claim atomically claims the next eligible job on the queue (PENDING,
	// run_at due, lowest priority value first, then FIFO by enqueue time)
	// and marks it ACTIVE. Returns nil when no job is eligible.
	Claim(ctx context.Context, queue string, now time.Time) (*entities.Job, error)

	// MarkCompleted transitions an ACTIVE job to COMPLETED.
	MarkCompleted(ctx context.Context, jobID string, finishedAt time.Time) error

	// MarkFailed transitions an ACTIVE job to FAILED permanently.
	MarkFailed(ctx context.Context, jobID string, lastError string, finishedAt time.Time) error

	// Reschedule returns an ACTIVE job to PENDING with an incremented
	// attempt count, to run no earlier than runAt.
	Reschedule(ctx context.Context, jobID string, attemptCount int, lastError string, runAt time.Time) error

	// RecoverStale returns ACTIVE jobs on the queue started on or before
	// cutoff to PENDING, so work orphaned by a crashed worker can be
	// claimed again. Returns how many jobs were recovered.
	RecoverStale(ctx context.Context, queue string, cutoff time.Time) (int, error)

	// FindJobByID finds a job by its ID.
	FindJobByID(ctx context.Context, id string) (*entities.Job, error)

	// ListJobs lists jobs on a queue by status, newest first. An empty
	// status lists all.
	ListJobs(ctx context.Context, queue string, status entities.JobStatus, limit int) ([]entities.Job, error)

	// PruneTerminal deletes the oldest terminal jobs on a queue beyond the
	// retention counts, returning how many were removed.
	PruneTerminal(ctx context.Context, queue string, retainCompleted, retainFailed int) (int, error)
}
