package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// Job times are stored as unix nanoseconds so claim-order comparisons are
// exact regardless of timezone formatting.

// Enqueue appends a job in PENDING status.
func (r *Repository) Enqueue(ctx context.Context, job *entities.Job) error {
	query := `
		INSERT INTO jobs (id, queue, payload, priority, attempt_count, max_attempts, status, last_error, enqueued_at, run_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Queue, job.Payload, job.Priority,
		job.AttemptCount, job.MaxAttempts, string(job.Status),
		job.EnqueuedAt.UnixNano(), job.RunAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("enqueueing job: %w", err)
	}
	return nil
}

// Claim atomically claims the next eligible job on the queue and marks it
// ACTIVE. Eligibility is PENDING status with run_at due; order is priority
// ascending, then FIFO by enqueue time. The select and the status flip run in
// one transaction, and the UPDATE re-checks the status, so two concurrent
// claims can never return the same job.
func (r *Repository) Claim(ctx context.Context, queue string, now time.Time) (*entities.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, queue, payload, priority, attempt_count, max_attempts, status, COALESCE(last_error, ''), enqueued_at, run_at, started_at, finished_at
		FROM jobs
		WHERE queue = ? AND status = ? AND run_at <= ?
		ORDER BY priority ASC, enqueued_at ASC, id ASC
		LIMIT 1
	`
	row := tx.QueryRowContext(ctx, query, queue, string(entities.JobPending), now.UnixNano())

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		string(entities.JobActive), now.UnixNano(), job.ID, string(entities.JobPending),
	)
	if err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claiming job: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	job.Status = entities.JobActive
	job.StartedAt = now
	return job, nil
}

// MarkCompleted transitions an ACTIVE job to COMPLETED.
func (r *Repository) MarkCompleted(ctx context.Context, jobID string, finishedAt time.Time) error {
	return r.finishJob(ctx, jobID, entities.JobCompleted, "", finishedAt)
}

// MarkFailed transitions an ACTIVE job to FAILED permanently.
func (r *Repository) MarkFailed(ctx context.Context, jobID string, lastError string, finishedAt time.Time) error {
	return r.finishJob(ctx, jobID, entities.JobFailed, lastError, finishedAt)
}

func (r *Repository) finishJob(ctx context.Context, jobID string, status entities.JobStatus, lastError string, finishedAt time.Time) error {
	var lastErr sql.NullString
	if lastError != "" {
		lastErr = sql.NullString{String: lastError, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, last_error = COALESCE(?, last_error), finished_at = ? WHERE id = ? AND status = ?`,
		string(status), lastErr, finishedAt.UnixNano(), jobID, string(entities.JobActive),
	)
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not active: %s", jobID)
	}
	return nil
}

// Reschedule returns an ACTIVE job to PENDING with an incremented attempt
// count, to run no earlier than runAt.
func (r *Repository) Reschedule(ctx context.Context, jobID string, attemptCount int, lastError string, runAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, attempt_count = ?, last_error = ?, run_at = ?, started_at = NULL WHERE id = ? AND status = ?`,
		string(entities.JobPending), attemptCount, lastError, runAt.UnixNano(), jobID, string(entities.JobActive),
	)
	if err != nil {
		return fmt.Errorf("rescheduling job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rescheduling job: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not active: %s", jobID)
	}
	return nil
}

// RecoverStale returns ACTIVE jobs started on or before cutoff to PENDING so
// they become claimable again. The interrupted attempt does not count against
// the budget; attempt_count only grows on an observed failure.
func (r *Repository) RecoverStale(ctx context.Context, queue string, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = NULL WHERE queue = ? AND status = ? AND started_at <= ?`,
		string(entities.JobPending), queue, string(entities.JobActive), cutoff.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("recovering stale jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recovering stale jobs: %w", err)
	}
	return int(affected), nil
}

// FindJobByID finds a job by its ID.
func (r *Repository) FindJobByID(ctx context.Context, id string) (*entities.Job, error) {
	query := `
		SELECT id, queue, payload, priority, attempt_count, max_attempts, status, COALESCE(last_error, ''), enqueued_at, run_at, started_at, finished_at
		FROM jobs
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs lists jobs on a queue by status, newest first. Empty queue lists
// all queues; empty status lists all statuses.
func (r *Repository) ListJobs(ctx context.Context, queue string, status entities.JobStatus, limit int) ([]entities.Job, error) {
	query := `
		SELECT id, queue, payload, priority, attempt_count, max_attempts, status, COALESCE(last_error, ''), enqueued_at, run_at, started_at, finished_at
		FROM jobs
	`
	var conds []string
	var args []any
	if queue != "" {
		conds = append(conds, "queue = ?")
		args = append(args, queue)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(status))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY enqueued_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []entities.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// PruneTerminal deletes the oldest terminal jobs on a queue beyond the
// retention counts, returning how many were removed.
func (r *Repository) PruneTerminal(ctx context.Context, queue string, retainCompleted, retainFailed int) (int, error) {
	pruned := 0
	for _, p := range []struct {
		status entities.JobStatus
		retain int
	}{
		{entities.JobCompleted, retainCompleted},
		{entities.JobFailed, retainFailed},
	} {
		query := `
			DELETE FROM jobs
			WHERE queue = ? AND status = ? AND id NOT IN (
				SELECT id FROM jobs
				WHERE queue = ? AND status = ?
				ORDER BY finished_at DESC, id DESC
				LIMIT ?
			)
		`
		res, err := r.db.ExecContext(ctx, query, queue, string(p.status), queue, string(p.status), p.retain)
		if err != nil {
			return pruned, fmt.Errorf("pruning %s jobs: %w", p.status, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return pruned, fmt.Errorf("pruning %s jobs: %w", p.status, err)
		}
		pruned += int(affected)
	}
	return pruned, nil
}

func scanJob(scan func(dest ...any) error) (*entities.Job, error) {
	var job entities.Job
	var enqueuedAt, runAt int64
	var startedAt, finishedAt sql.NullInt64
	err := scan(&job.ID, &job.Queue, &job.Payload, &job.Priority,
		&job.AttemptCount, &job.MaxAttempts, &job.Status, &job.LastError,
		&enqueuedAt, &runAt, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	job.EnqueuedAt = time.Unix(0, enqueuedAt)
	job.RunAt = time.Unix(0, runAt)
	if startedAt.Valid {
		job.StartedAt = time.Unix(0, startedAt.Int64)
	}
	if finishedAt.Valid {
		job.FinishedAt = time.Unix(0, finishedAt.Int64)
	}
	return &job, nil
}
