package importer

import (
	"errors"
	"fmt"
)

// Common sentinel errors for import sessions
var (
	// ErrSessionBusy indicates a state transition was attempted while a
	// commit is already in flight. Callers should not queue; retry once
	// the in-flight transition settles.
	ErrSessionBusy = errors.New("import session busy")

	// ErrInvalidSessionState indicates the operation is not valid in the
	// session's current state (e.g. commit before generate).
	ErrInvalidSessionState = errors.New("operation not valid in current session state")

	// ErrNothingSelected indicates commit was called with no selected drafts.
	ErrNothingSelected = errors.New("no drafts selected for commit")
)

// SessionError wraps errors from import session operations with context.
type SessionError struct {
	// Operation is the operation that failed (e.g., "generate", "commit")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for SessionError.
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import session %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("import session %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
// It returns known sentinel errors directly without wrapping.
func NewSessionError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrInvalidSessionState) ||
		errors.Is(err, ErrNothingSelected) {
		return err
	}

	return &SessionError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
