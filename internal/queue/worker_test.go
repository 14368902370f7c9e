package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/mocks"
)

func newTestWorker(store *mocks.JobStore, handler Handler) *Worker {
	policy := DefaultPolicies()[QueueAnswerGeneration]
	return NewWorker(QueueAnswerGeneration, handler, store, policy, nil)
}

func enqueueTestJob(t *testing.T, store *mocks.JobStore, now time.Time) *entities.Job {
	t.Helper()
	q := New(store, nil)
	q.nowFunc = func() time.Time { return now }
	job, err := q.EnqueueAnswer(context.Background(), AnswerPayload{QuestionID: "q1"})
	require.NoError(t, err)
	return job
}

func TestWorker_RunOnce_Success(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)

	var handled atomic.Int32
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		handled.Add(1)
		assert.Equal(t, job.ID, j.ID)
		return nil
	}))
	w.nowFunc = func() time.Time { return now }

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, int32(1), handled.Load())

	stored, err := store.FindJobByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobCompleted, stored.Status)
	assert.Equal(t, 1, store.PruneCallCount, "completion triggers retention pruning")
}

func TestWorker_RunOnce_NothingToClaim(t *testing.T) {
	store := &mocks.JobStore{}
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		t.Fatal("handler must not run")
		return nil
	}))

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestWorker_RetryableFailureReschedulesWithBackoff(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)

	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return &faults.GenerationError{Err: errors.New("model timeout")}
	}))
	w.nowFunc = func() time.Time { return now }

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	stored, err := store.FindJobByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobPending, stored.Status)
	assert.Equal(t, 1, stored.AttemptCount)
	assert.Contains(t, stored.LastError, "model timeout")
	// First retry waits the base backoff of 2s.
	assert.Equal(t, now.Add(2*time.Second), stored.RunAt)
}

func TestWorker_BackoffDoublesPerAttempt(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)
	ctx := context.Background()

	clock := now
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return &faults.RetrievalError{Err: errors.New("vector store down")}
	}))
	w.nowFunc = func() time.Time { return clock }

	// Attempt 1 fails: retry after 2s.
	_, err := w.runOnce(ctx)
	require.NoError(t, err)
	stored, err := store.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Add(2*time.Second), stored.RunAt)

	// Attempt 2 fails: retry after 4s.
	clock = stored.RunAt
	_, err = w.runOnce(ctx)
	require.NoError(t, err)
	stored, err = store.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobPending, stored.Status)
	assert.Equal(t, 2, stored.AttemptCount)
	assert.Equal(t, clock.Add(4*time.Second), stored.RunAt)

	// Attempt 3 exhausts the budget of 3: FAILED, no more retries.
	clock = stored.RunAt
	_, err = w.runOnce(ctx)
	require.NoError(t, err)
	stored, err = store.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobFailed, stored.Status)
}

func TestWorker_FatalErrorFailsImmediately(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)

	var calls atomic.Int32
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		calls.Add(1)
		return faults.Fatal(errors.New("malformed payload"))
	}))
	w.nowFunc = func() time.Time { return now }

	_, err := w.runOnce(context.Background())
	require.NoError(t, err)

	stored, err := store.FindJobByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobFailed, stored.Status)
	assert.Contains(t, stored.LastError, "malformed payload")
	assert.Equal(t, int32(1), calls.Load(), "fatal errors burn no further attempts")
}

func TestWorker_RunRecoversOrphanedJobs(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)

	// A previous process claimed the job and died before finishing it,
	// leaving the row ACTIVE.
	claimed, err := store.Claim(context.Background(), QueueAnswerGeneration, now)
	require.NoError(t, err)
	require.Equal(t, job.ID, claimed.ID)

	var handled atomic.Int32
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		handled.Add(1)
		return nil
	}))
	w.nowFunc = func() time.Time { return now.Add(time.Minute) }
	w.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return handled.Load() == 1
	}, time.Second, 5*time.Millisecond, "orphaned job must be recovered and reprocessed")
	cancel()
	<-done

	stored, err := store.FindJobByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobCompleted, stored.Status)
}

func TestWorker_PermanentFailureIsAudited(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := enqueueTestJob(t, store, now)

	audit := &mocks.RelationalDB{}
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return faults.Fatal(errors.New("malformed payload"))
	}))
	w.audit = audit
	w.nowFunc = func() time.Time { return now }

	_, err := w.runOnce(context.Background())
	require.NoError(t, err)

	entries, err := audit.FindAuditLog(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job.failed", entries[0].Action)
	assert.Equal(t, QueueAnswerGeneration, entries[0].Details["queue"])
	assert.Equal(t, true, entries[0].Details["fatal"])
	assert.Contains(t, entries[0].Details["error"], "malformed payload")
}

func TestWorker_RetryableFailureIsNotAudited(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	enqueueTestJob(t, store, now)

	audit := &mocks.RelationalDB{}
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return &faults.GenerationError{Err: errors.New("model timeout")}
	}))
	w.audit = audit
	w.nowFunc = func() time.Time { return now }

	_, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, audit.Audit, "a retryable failure leaves no audit entry")
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	store := &mocks.JobStore{}
	w := newTestWorker(store, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return nil
	}))
	w.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkers_RegisterAndDrain(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Now()
	enqueueTestJob(t, store, now)

	var handled atomic.Int32
	ws := NewWorkers(store, nil)
	ws.SetPollInterval(5 * time.Millisecond)
	require.NoError(t, ws.Register(QueueAnswerGeneration, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		handled.Add(1)
		return nil
	})))

	ws.Start(context.Background())

	require.Eventually(t, func() bool {
		return handled.Load() == 1
	}, time.Second, 5*time.Millisecond)

	ws.Close()

	jobs, err := store.ListJobs(context.Background(), QueueAnswerGeneration, entities.JobCompleted, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestWorkers_SetAuditReachesRegisteredWorkers(t *testing.T) {
	store := &mocks.JobStore{}
	now := time.Now()
	job := enqueueTestJob(t, store, now)

	audit := &mocks.RelationalDB{}
	ws := NewWorkers(store, nil)
	ws.SetPollInterval(5 * time.Millisecond)
	ws.SetAudit(audit)
	require.NoError(t, ws.Register(QueueAnswerGeneration, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return faults.Fatal(errors.New("bad payload"))
	})))

	ws.Start(context.Background())

	require.Eventually(t, func() bool {
		jobs, err := store.ListJobs(context.Background(), QueueAnswerGeneration, entities.JobFailed, 1)
		return err == nil && len(jobs) == 1
	}, time.Second, 5*time.Millisecond)

	ws.Close()

	entries, err := audit.FindAuditLog(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "job.failed", entries[0].Action)
}

func TestWorkers_Register_UnknownQueue(t *testing.T) {
	ws := NewWorkers(&mocks.JobStore{}, nil)

	err := ws.Register("nonexistent", HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return nil
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown queue")
}

func TestWorkers_Register_AfterStart(t *testing.T) {
	ws := NewWorkers(&mocks.JobStore{}, nil)
	ws.Start(context.Background())
	defer ws.Close()

	err := ws.Register(QueueAnswerGeneration, HandlerFunc(func(ctx context.Context, j *entities.Job) error {
		return nil
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}
