package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the result of a card review.
type ReviewOutcome string

// Possible review outcome values. ReviewOutcomeNone marks a card that
// has never been reviewed.
const (
	ReviewOutcomeNone  ReviewOutcome = "none"
	ReviewOutcomeAgain ReviewOutcome = "again"
	ReviewOutcomeHard  ReviewOutcome = "hard"
	ReviewOutcomeGood  ReviewOutcome = "good"
	ReviewOutcomeEasy  ReviewOutcome = "easy"
)

// IsValidReviewOutcome checks if the given outcome is one a reviewer can
// submit. ReviewOutcomeNone is a stored marker, not a submittable outcome.
func IsValidReviewOutcome(outcome ReviewOutcome) bool {
	switch outcome {
	case ReviewOutcomeAgain, ReviewOutcomeHard, ReviewOutcomeGood, ReviewOutcomeEasy:
		return true
	default:
		return false
	}
}

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDirectionEmpty is returned when a card's direction ID is empty or nil.
	ErrCardDirectionEmpty = errors.New("card direction ID cannot be empty")

	// ErrCardTitleEmpty is returned when a card's title is empty.
	ErrCardTitleEmpty = errors.New("card title cannot be empty")

	// ErrCardConfidenceRange is returned when a confidence score is outside [0,1].
	ErrCardConfidenceRange = errors.New("card confidence score must be within [0,1]")

	// ErrCardIntervalNegative is returned when a review interval is negative.
	ErrCardIntervalNegative = errors.New("card review interval cannot be negative")
)

// Evidence is one source excerpt backing a card, with the URL it came
// from when the source material carried one.
type Evidence struct {
	Excerpt string `json:"excerpt"`
	URL     string `json:"url,omitempty"`
}

// ReviewState is the spaced-repetition state embedded in a card.
// IntervalDays is non-decreasing across successful reviews and resets to
// the minimum unit on failure.
type ReviewState struct {
	DueAt        time.Time     `json:"due_at"`
	IntervalDays int           `json:"interval_days"`
	LastOutcome  ReviewOutcome `json:"last_outcome"`
}

// Card represents a committed, reviewable learning unit. It always
// references an existing direction and inherits that direction's
// language. ConfidenceScore is frozen at commit time; only the review
// state changes afterwards.
type Card struct {
	ID              uuid.UUID   `json:"id"`
	DirectionID     uuid.UUID   `json:"direction_id"`
	Title           string      `json:"title"`
	Body            string      `json:"body"`
	Tags            []string    `json:"tags,omitempty"`
	ConfidenceScore float64     `json:"confidence_score"`
	Evidence        []Evidence  `json:"evidence,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Review          ReviewState `json:"review"`
}

// NewCard creates a new Card under the given direction. The card is due
// immediately with a zero interval and no review history.
// Returns an error if validation fails.
func NewCard(directionID uuid.UUID, title, body string, tags []string, confidence float64, evidence []Evidence) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:              uuid.New(),
		DirectionID:     directionID,
		Title:           title,
		Body:            body,
		Tags:            tags,
		ConfidenceScore: confidence,
		Evidence:        evidence,
		CreatedAt:       now,
		Review: ReviewState{
			DueAt:        now,
			IntervalDays: 0,
			LastOutcome:  ReviewOutcomeNone,
		},
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DirectionID == uuid.Nil {
		return ErrCardDirectionEmpty
	}

	if c.Title == "" {
		return ErrCardTitleEmpty
	}

	if c.ConfidenceScore < 0 || c.ConfidenceScore > 1 {
		return ErrCardConfidenceRange
	}

	if c.Review.IntervalDays < 0 {
		return ErrCardIntervalNegative
	}

	if c.Review.LastOutcome != ReviewOutcomeNone && !IsValidReviewOutcome(c.Review.LastOutcome) {
		return ErrInvalidReviewOutcome
	}

	return nil
}
