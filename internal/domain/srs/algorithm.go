package srs

import (
	"math"
	"time"

	"github.com/cklxx/knowflow/internal/domain"
)

// calculateNewInterval determines the new interval in days based on the
// review outcome and the current review state.
//
// Behavior:
//   - "Again" resets the interval to the minimum unit regardless of history.
//   - First reviews (current interval 0) use the predefined intervals from
//     params so a brand-new card does not get stuck at zero.
//   - "Hard" multiplies by a factor below 1, floored at the minimum unit.
//   - "Good" and "Easy" multiply by factors above 1 and round up, so a
//     successful review never shrinks the interval.
func calculateNewInterval(
	currentInterval int,
	outcome domain.ReviewOutcome,
	params *Params,
) int {
	// Failed review: back to the minimum unit.
	if outcome == domain.ReviewOutcomeAgain {
		return params.MinIntervalDays
	}

	// First review or post-reset: use the predefined starting intervals.
	if currentInterval == 0 {
		return params.FirstReviewIntervals[outcome]
	}

	factor := params.IntervalFactor[outcome]
	scaled := float64(currentInterval) * factor

	if outcome == domain.ReviewOutcomeHard {
		next := int(scaled)
		if next < params.MinIntervalDays {
			next = params.MinIntervalDays
		}
		return next
	}

	// Round up so growth factors barely above 1 still make progress.
	next := int(math.Ceil(scaled))
	if next < currentInterval {
		next = currentInterval
	}
	return next
}

// NextReview computes the review state a card carries after a review at
// the given instant. The input state is never modified; a new state is
// returned with the updated interval, due time, and last outcome.
func NextReview(
	state domain.ReviewState,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) domain.ReviewState {
	interval := calculateNewInterval(state.IntervalDays, outcome, params)

	return domain.ReviewState{
		DueAt:        now.AddDate(0, 0, interval),
		IntervalDays: interval,
		LastOutcome:  outcome,
	}
}
