package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// Queue is the enqueue side of the job system. One Queue instance is
// constructed at startup and passed by ownership to whoever produces jobs;
// there is no package-level singleton.
type Queue struct {
	store    ports.JobStore
	policies map[string]Policy
	logger   *zap.Logger

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates a Queue over the given store with the default policy table.
func New(store ports.JobStore, logger *zap.Logger) *Queue {
	return NewWithPolicies(store, DefaultPolicies(), logger)
}

// NewWithPolicies creates a Queue with an explicit policy table.
func NewWithPolicies(store ports.JobStore, policies map[string]Policy, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		store:    store,
		policies: policies,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Policy returns the policy for a named queue.
func (q *Queue) Policy(name string) (Policy, bool) {
	p, ok := q.policies[name]
	return p, ok
}

// Enqueue appends a job to the named queue. The payload is serialized to
// JSON; priority and attempt budget come from the queue's policy. Enqueue is
// append-only: jobs are never mutated by producers after this point.
func (q *Queue) Enqueue(ctx context.Context, queueName string, payload any) (*entities.Job, error) {
	policy, ok := q.policies[queueName]
	if !ok {
		return nil, fmt.Errorf("unknown queue: %s", queueName)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	now := q.nowFunc()
	job := &entities.Job{
		ID:          uuid.New().String(),
		Queue:       queueName,
		Payload:     data,
		Priority:    policy.Priority,
		MaxAttempts: policy.MaxAttempts,
		Status:      entities.JobPending,
		EnqueuedAt:  now,
		RunAt:       now,
	}

	if err := q.store.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueueing job: %w", err)
	}

	q.logger.Info("job enqueued",
		zap.String("queue", queueName),
		zap.String("job_id", job.ID),
		zap.Int("priority", job.Priority))
	return job, nil
}

// EnqueueAnswer enqueues an answer-generation job.
func (q *Queue) EnqueueAnswer(ctx context.Context, payload AnswerPayload) (*entities.Job, error) {
	return q.Enqueue(ctx, QueueAnswerGeneration, payload)
}

// EnqueueIngestion enqueues a document-ingestion job.
func (q *Queue) EnqueueIngestion(ctx context.Context, payload IngestPayload) (*entities.Job, error) {
	return q.Enqueue(ctx, QueueDocumentIngestion, payload)
}

// EnqueueNotification enqueues a notification job.
func (q *Queue) EnqueueNotification(ctx context.Context, payload NotifyPayload) (*entities.Job, error) {
	return q.Enqueue(ctx, QueueNotification, payload)
}
