package scheduler

import (
	"errors"
	"fmt"

	"github.com/cklxx/knowflow/internal/store"
)

// Common sentinel errors for the review scheduler
var (
	// ErrCardNotFound indicates that the card does not exist
	ErrCardNotFound = errors.New("card not found")

	// ErrOutcomeConflict indicates a concurrent outcome already advanced
	// the card's review state; the caller should reload and retry.
	ErrOutcomeConflict = errors.New("review outcome conflict")
)

// SchedulerError wraps errors from scheduler operations with context.
type SchedulerError struct {
	// Operation is the operation that failed (e.g., "today_plan", "apply_outcome")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for SchedulerError.
func (e *SchedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduler %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("scheduler %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SchedulerError) Unwrap() error {
	return e.Err
}

// NewSchedulerError creates a new SchedulerError.
// It returns known sentinel errors directly without wrapping, and maps
// store-level sentinels to scheduler-level ones.
func NewSchedulerError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrOutcomeConflict) {
		return err
	}
	if errors.Is(err, store.ErrCardNotFound) {
		return ErrCardNotFound
	}
	if errors.Is(err, store.ErrOutcomeConflict) {
		return ErrOutcomeConflict
	}

	return &SchedulerError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
