package skill

import (
	"errors"
	"fmt"

	"github.com/cklxx/knowflow/internal/store"
)

// Common sentinel errors for the skill tracker
var (
	// ErrSkillPointNotFound indicates that the skill point does not exist
	ErrSkillPointNotFound = errors.New("skill point not found")

	// ErrInvalidOutcome indicates an unrecognized review outcome
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// TrackerError wraps errors from skill tracker operations with context.
type TrackerError struct {
	// Operation is the operation that failed (e.g., "apply_outcome", "self_assess")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TrackerError.
func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skill tracker %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("skill tracker %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// NewTrackerError creates a new TrackerError.
// It returns known sentinel errors directly without wrapping, and maps
// store-level not-found errors to the service-level sentinel.
func NewTrackerError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrSkillPointNotFound) || errors.Is(err, ErrInvalidOutcome) {
		return err
	}
	if errors.Is(err, store.ErrSkillPointNotFound) {
		return ErrSkillPointNotFound
	}

	return &TrackerError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
