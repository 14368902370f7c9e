package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/mocks"
)

func TestQueue_Enqueue(t *testing.T) {
	store := &mocks.JobStore{}
	q := New(store, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q.nowFunc = func() time.Time { return now }

	payload := AnswerPayload{
		QuestionID:   "q1",
		QuestionText: "When did the port open?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
		RequesterID:  "u1",
	}

	job, err := q.EnqueueAnswer(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, QueueAnswerGeneration, job.Queue)
	assert.Equal(t, 1, job.Priority)
	assert.Equal(t, 3, job.MaxAttempts)
	assert.Zero(t, job.AttemptCount)
	assert.Equal(t, entities.JobPending, job.Status)
	assert.Equal(t, now, job.EnqueuedAt)
	assert.Equal(t, now, job.RunAt, "new jobs are eligible immediately")
	assert.Equal(t, 1, store.EnqueueCallCount)

	var decoded AnswerPayload
	require.NoError(t, json.Unmarshal(job.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestQueue_Enqueue_UnknownQueue(t *testing.T) {
	q := New(&mocks.JobStore{}, nil)

	_, err := q.Enqueue(context.Background(), "nonexistent", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown queue")
}

func TestQueue_Enqueue_StoreError(t *testing.T) {
	store := &mocks.JobStore{Err: assert.AnError}
	q := New(store, nil)

	_, err := q.EnqueueNotification(context.Background(), NotifyPayload{To: "user@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestQueue_EnqueueHelpers_UsePolicyTable(t *testing.T) {
	store := &mocks.JobStore{}
	q := New(store, nil)
	ctx := context.Background()

	ingestJob, err := q.EnqueueIngestion(ctx, IngestPayload{SourceID: "s1", DocumentURL: "https://example.com/doc"})
	require.NoError(t, err)
	assert.Equal(t, QueueDocumentIngestion, ingestJob.Queue)
	assert.Equal(t, 2, ingestJob.Priority)
	assert.Equal(t, 5, ingestJob.MaxAttempts)

	notifyJob, err := q.EnqueueNotification(ctx, NotifyPayload{To: "user@example.com", TemplateID: "answer-ready"})
	require.NoError(t, err)
	assert.Equal(t, QueueNotification, notifyJob.Queue)
	assert.Equal(t, 3, notifyJob.Priority)
	assert.Equal(t, 3, notifyJob.MaxAttempts)
}

func TestQueue_Policy(t *testing.T) {
	q := NewWithPolicies(&mocks.JobStore{}, map[string]Policy{
		"custom": {MaxAttempts: 7, BackoffBase: time.Second, Priority: 1},
	}, nil)

	p, ok := q.Policy("custom")
	require.True(t, ok)
	assert.Equal(t, 7, p.MaxAttempts)

	_, ok = q.Policy("other")
	assert.False(t, ok)
}
