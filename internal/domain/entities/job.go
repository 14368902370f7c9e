package entities

import "time"

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobActive    JobStatus = "ACTIVE"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is a durable unit of work on a named queue. AttemptCount increments on
// each retry and never exceeds MaxAttempts; the job is terminal once
// COMPLETED, or FAILED when attempts are exhausted.
type Job struct {
	ID           string    `json:"id"`
	Queue        string    `json:"queue"`
	Payload      []byte    `json:"payload"`
	Priority     int       `json:"priority"`
	AttemptCount int       `json:"attempt_count"`
	MaxAttempts  int       `json:"max_attempts"`
	Status       JobStatus `json:"status"`
	LastError    string    `json:"last_error,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	RunAt        time.Time `json:"run_at"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}
