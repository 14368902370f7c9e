// Package faults defines the error taxonomy shared by services, handlers and
// the job queue. Handler errors bubble up to the queue layer, which retries
// unless the error is marked fatal.
package faults

import (
	"errors"
	"fmt"
)

// RetrievalError indicates the embedding call or document store failed during
// candidate lookup. Retryable at the job level.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError indicates the narrative generation service failed or
// returned an empty response. Retryable at the job level; no partial answer
// is persisted.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StoreWriteError indicates persistence failed after a successful generation.
// Retryable; answer persistence is idempotent by job ID so a retry cannot
// duplicate the answer.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// ErrUnauthorizedModeration is returned when the caller lacks the role to
// transition a community note. Fatal: the queue never retries it.
var ErrUnauthorizedModeration = Fatal(errors.New("only moderators can moderate notes"))

// fatalError marks an error that must not be retried by the queue.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so that IsFatal reports true for it. A nil err returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether the error (or any error in its chain) was marked
// fatal and must not be retried.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
