package onboarding

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the onboarding wizard
var (
	// ErrStepOrder indicates an operation that belongs to a different
	// step than the wizard's current one. The wizard is strictly
	// linear; there is no skipping ahead or jumping back.
	ErrStepOrder = errors.New("operation not valid at current onboarding step")

	// ErrStepIncomplete indicates Advance was called before the current
	// step's required input was provided.
	ErrStepIncomplete = errors.New("onboarding step incomplete")

	// ErrWizardFinished indicates the wizard has already finished and
	// accepts no further operations.
	ErrWizardFinished = errors.New("onboarding wizard already finished")
)

// WizardError wraps errors from onboarding operations with context.
type WizardError struct {
	// Operation is the operation that failed (e.g., "finish")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for WizardError.
func (e *WizardError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("onboarding %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("onboarding %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *WizardError) Unwrap() error {
	return e.Err
}

// NewWizardError creates a new WizardError.
// It returns known sentinel errors directly without wrapping.
func NewWizardError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrStepOrder) ||
		errors.Is(err, ErrStepIncomplete) ||
		errors.Is(err, ErrWizardFinished) {
		return err
	}

	return &WizardError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
