// Package queue implements durable named job queues with per-queue retry,
// backoff and retention policies, and the workers that drain them.
package queue

import "time"

// Queue names. Each queue carries one payload type and one handler.
const (
	// QueueAnswerGeneration carries answer-generation jobs.
	QueueAnswerGeneration = "answer-generation"
	// QueueDocumentIngestion carries document-ingestion jobs.
	QueueDocumentIngestion = "document-ingestion"
	// QueueNotification carries notification jobs.
	QueueNotification = "notification"
)

// Policy is the per-queue retry, priority and retention policy.
type Policy struct {
	// MaxAttempts is the total number of handler invocations before the
	// job is marked FAILED permanently.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; each further retry
	// doubles it.
	BackoffBase time.Duration

	// Priority orders claims when a worker serves jobs of mixed priority;
	// lower values are claimed first.
	Priority int

	// RetainCompleted and RetainFailed bound how many terminal jobs are
	// kept per queue before the oldest are pruned.
	RetainCompleted int
	RetainFailed    int
}

// Backoff returns the delay before the retry that follows failed attempt
// attempt (1-based): BackoffBase × 2^(attempt-1).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BackoffBase << (attempt - 1)
}

// DefaultPolicies returns the policy table for the three standard queues.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		QueueAnswerGeneration: {
			MaxAttempts:     3,
			BackoffBase:     2 * time.Second,
			Priority:        1,
			RetainCompleted: 100,
			RetainFailed:    50,
		},
		QueueDocumentIngestion: {
			MaxAttempts:     5,
			BackoffBase:     5 * time.Second,
			Priority:        2,
			RetainCompleted: 50,
			RetainFailed:    25,
		},
		QueueNotification: {
			MaxAttempts:     3,
			BackoffBase:     1 * time.Second,
			Priority:        3,
			RetainCompleted: 100,
			RetainFailed:    50,
		},
	}
}
