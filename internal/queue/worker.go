package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// DefaultPollInterval is how long an idle worker waits before checking its
// queue again.
const DefaultPollInterval = 500 * time.Millisecond

// Handler processes one claimed job. Handlers are re-invoked wholesale on
// retry, so they must be idempotent: no non-idempotent partial work before a
// failure point.
type Handler interface {
	Handle(ctx context.Context, job *entities.Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *entities.Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *entities.Job) error {
	return f(ctx, job)
}

// Auditor records durable audit entries for job-level events. The relational
// store satisfies this; a nil auditor disables recording.
type Auditor interface {
	LogAction(ctx context.Context, action, subjectID string, details map[string]any) error
}

// Worker is the single logical consumer of one queue. It claims eligible
// jobs one at a time (the store's Claim is mutually exclusive, so a job is
// never processed twice concurrently), invokes the handler, and applies the
// queue's retry policy on failure.
type Worker struct {
	queueName    string
	handler      Handler
	store        ports.JobStore
	policy       Policy
	logger       *zap.Logger
	pollInterval time.Duration
	audit        Auditor

	nowFunc func() time.Time
}

// NewWorker creates a worker for one queue.
func NewWorker(queueName string, handler Handler, store ports.JobStore, policy Policy, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queueName:    queueName,
		handler:      handler,
		store:        store,
		policy:       policy,
		logger:       logger.With(zap.String("queue", queueName)),
		pollInterval: DefaultPollInterval,
		nowFunc:      time.Now,
	}
}

// Run claims and processes jobs until ctx is canceled. Cancellation stops
// new claims; the job in flight finishes first.
func (w *Worker) Run(ctx context.Context) {
	w.recoverOrphans(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := w.runOnce(ctx)
		if err != nil {
			w.logger.Error("claiming job", zap.Error(err))
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

// recoverOrphans returns jobs left ACTIVE by a previous process to PENDING.
// The worker is the queue's only consumer, so any ACTIVE row at startup is an
// orphan from a run that died mid-job.
func (w *Worker) recoverOrphans(ctx context.Context) {
	recovered, err := w.store.RecoverStale(ctx, w.queueName, w.nowFunc())
	if err != nil {
		w.logger.Error("recovering orphaned jobs", zap.Error(err))
		return
	}
	if recovered > 0 {
		w.logger.Warn("recovered orphaned jobs", zap.Int("count", recovered))
	}
}

// runOnce claims at most one job and processes it. It reports whether a job
// was processed.
func (w *Worker) runOnce(ctx context.Context) (bool, error) {
	job, err := w.store.Claim(ctx, w.queueName, w.nowFunc())
	if err != nil {
		return false, fmt.Errorf("claiming from %s: %w", w.queueName, err)
	}
	if job == nil {
		return false, nil
	}

	// Draining must not abort the claimed job mid-handler; the handler's
	// own call timeouts bound how long this can take.
	w.process(context.WithoutCancel(ctx), job)
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *entities.Job) {
	log := w.logger.With(zap.String("job_id", job.ID), zap.Int("attempt", job.AttemptCount+1))

	handlerErr := w.handler.Handle(ctx, job)
	now := w.nowFunc()

	if handlerErr == nil {
		if err := w.store.MarkCompleted(ctx, job.ID, now); err != nil {
			// The handler's own persistence is idempotent by job ID, so
			// re-running after a crash here is safe.
			log.Error("marking job completed", zap.Error(err))
			return
		}
		log.Info("job completed")
		w.prune(ctx)
		return
	}

	attempt := job.AttemptCount + 1
	if faults.IsFatal(handlerErr) || attempt >= job.MaxAttempts {
		if err := w.store.MarkFailed(ctx, job.ID, handlerErr.Error(), now); err != nil {
			log.Error("marking job failed", zap.Error(err))
			return
		}
		log.Error("job failed permanently",
			zap.Error(handlerErr),
			zap.Int("attempts", attempt),
			zap.Bool("fatal", faults.IsFatal(handlerErr)))
		if w.audit != nil {
			_ = w.audit.LogAction(ctx, "job.failed", job.ID, map[string]any{
				"queue":    job.Queue,
				"error":    handlerErr.Error(),
				"attempts": attempt,
				"fatal":    faults.IsFatal(handlerErr),
			})
		}
		w.prune(ctx)
		return
	}

	delay := w.policy.Backoff(attempt)
	if err := w.store.Reschedule(ctx, job.ID, attempt, handlerErr.Error(), now.Add(delay)); err != nil {
		log.Error("rescheduling job", zap.Error(err))
		return
	}
	log.Warn("job failed, retrying",
		zap.Error(handlerErr),
		zap.Duration("backoff", delay))
}

func (w *Worker) prune(ctx context.Context) {
	pruned, err := w.store.PruneTerminal(ctx, w.queueName, w.policy.RetainCompleted, w.policy.RetainFailed)
	if err != nil {
		w.logger.Error("pruning terminal jobs", zap.Error(err))
		return
	}
	if pruned > 0 {
		w.logger.Debug("pruned terminal jobs", zap.Int("count", pruned))
	}
}

// Workers runs one worker per registered queue. Workers within a queue
// process jobs serially in enqueue order; queues progress independently of
// each other.
type Workers struct {
	store        ports.JobStore
	policies     map[string]Policy
	logger       *zap.Logger
	pollInterval time.Duration
	audit        Auditor

	mu      sync.Mutex
	workers []*Worker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewWorkers creates an empty worker pool over the store with the default
// policy table.
func NewWorkers(store ports.JobStore, logger *zap.Logger) *Workers {
	return NewWorkersWithPolicies(store, DefaultPolicies(), logger)
}

// NewWorkersWithPolicies creates an empty worker pool with an explicit
// policy table.
func NewWorkersWithPolicies(store ports.JobStore, policies map[string]Policy, logger *zap.Logger) *Workers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workers{
		store:        store,
		policies:     policies,
		logger:       logger,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval overrides the idle poll interval for workers registered
// after the call. Must be called before Start.
func (ws *Workers) SetPollInterval(d time.Duration) {
	if d > 0 {
		ws.pollInterval = d
	}
}

// SetAudit wires an audit log for workers registered after the call, so
// permanent job failures leave a durable record. Must be called before Start.
func (ws *Workers) SetAudit(a Auditor) {
	ws.audit = a
}

// Register binds a handler to a queue. Must be called before Start.
func (ws *Workers) Register(queueName string, handler Handler) error {
	policy, ok := ws.policies[queueName]
	if !ok {
		return fmt.Errorf("unknown queue: %s", queueName)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.started {
		return fmt.Errorf("cannot register %s: workers already started", queueName)
	}
	w := NewWorker(queueName, handler, ws.store, policy, ws.logger)
	w.pollInterval = ws.pollInterval
	w.audit = ws.audit
	ws.workers = append(ws.workers, w)
	return nil
}

// Start launches one goroutine per registered worker.
func (ws *Workers) Start(ctx context.Context) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.started {
		return
	}
	ws.started = true

	runCtx, cancel := context.WithCancel(ctx)
	ws.cancel = cancel

	for _, w := range ws.workers {
		ws.wg.Add(1)
		go func(w *Worker) {
			defer ws.wg.Done()
			w.Run(runCtx)
		}(w)
	}
	ws.logger.Info("workers started", zap.Int("queues", len(ws.workers)))
}

// Close drains the pool: no further jobs are claimed, in-flight jobs finish,
// then Close returns.
func (ws *Workers) Close() {
	ws.mu.Lock()
	cancel := ws.cancel
	ws.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	ws.wg.Wait()
	ws.logger.Info("workers stopped")
}
