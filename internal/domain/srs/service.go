package srs

import (
	"errors"
	"time"

	"github.com/cklxx/knowflow/internal/domain"
)

// Common errors
var (
	ErrInvalidOutcome = errors.New("invalid review outcome")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
)

// Service defines the interface for review scheduling operations
type Service interface {
	// CalculateNextReview computes a new review state based on a review outcome
	CalculateNextReview(
		state domain.ReviewState,
		outcome domain.ReviewOutcome,
		now time.Time,
	) (domain.ReviewState, error)

	// PostponeReview pushes the due time forward by a specified number of days
	PostponeReview(
		state domain.ReviewState,
		days int,
	) (domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new review scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new review scheduling service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface for calculating updated review state
func (s *defaultService) CalculateNextReview(
	state domain.ReviewState,
	outcome domain.ReviewOutcome,
	now time.Time,
) (domain.ReviewState, error) {
	if !domain.IsValidReviewOutcome(outcome) {
		return domain.ReviewState{}, ErrInvalidOutcome
	}

	return NextReview(state, outcome, now, s.params), nil
}

// PostponeReview implements the Service interface for postponing reviews.
// The interval is left untouched; only the due time moves.
func (s *defaultService) PostponeReview(
	state domain.ReviewState,
	days int,
) (domain.ReviewState, error) {
	if days < 1 {
		return domain.ReviewState{}, ErrInvalidDays
	}

	next := state
	next.DueAt = state.DueAt.AddDate(0, 0, days)
	return next, nil
}
