package srs

import (
	"github.com/cklxx/knowflow/internal/domain"
)

// Params defines all configurable parameters for the review interval rule.
// The exact numeric values are tunable; only their ordering is load-bearing:
// the hard factor stays below 1, good above 1, easy above good.
type Params struct {
	// MinIntervalDays is the smallest interval a reviewed card can carry.
	// Failed reviews reset to it and shrinking outcomes are floored at it.
	MinIntervalDays int

	// IntervalFactor is the per-outcome multiplier applied to the current
	// interval. The again entry is unused: again always resets.
	IntervalFactor map[domain.ReviewOutcome]float64

	// FirstReviewIntervals are the intervals assigned the first time a card
	// is reviewed, while its interval is still zero.
	FirstReviewIntervals map[domain.ReviewOutcome]int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinIntervalDays int

	// Interval factors
	HardIntervalFactor float64
	GoodIntervalFactor float64
	EasyIntervalFactor float64

	// First review intervals
	FirstReviewHardInterval int
	FirstReviewGoodInterval int
	FirstReviewEasyInterval int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinIntervalDays: 1,

		// Default interval factors
		IntervalFactor: map[domain.ReviewOutcome]float64{
			domain.ReviewOutcomeHard: 0.8, // Shrink, floored at the minimum unit
			domain.ReviewOutcomeGood: 1.6, // Steady growth
			domain.ReviewOutcomeEasy: 2.2, // Fast growth
		},

		// Default first review intervals
		FirstReviewIntervals: map[domain.ReviewOutcome]int{
			domain.ReviewOutcomeHard: 1,
			domain.ReviewOutcomeGood: 1,
			domain.ReviewOutcomeEasy: 2,
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinIntervalDays > 0 {
		params.MinIntervalDays = config.MinIntervalDays
	}

	// Override interval factors if provided
	if config.HardIntervalFactor > 0 {
		params.IntervalFactor[domain.ReviewOutcomeHard] = config.HardIntervalFactor
	}
	if config.GoodIntervalFactor > 0 {
		params.IntervalFactor[domain.ReviewOutcomeGood] = config.GoodIntervalFactor
	}
	if config.EasyIntervalFactor > 0 {
		params.IntervalFactor[domain.ReviewOutcomeEasy] = config.EasyIntervalFactor
	}

	// Override first review intervals if provided
	if config.FirstReviewHardInterval > 0 {
		params.FirstReviewIntervals[domain.ReviewOutcomeHard] = config.FirstReviewHardInterval
	}
	if config.FirstReviewGoodInterval > 0 {
		params.FirstReviewIntervals[domain.ReviewOutcomeGood] = config.FirstReviewGoodInterval
	}
	if config.FirstReviewEasyInterval > 0 {
		params.FirstReviewIntervals[domain.ReviewOutcomeEasy] = config.FirstReviewEasyInterval
	}

	return params
}
