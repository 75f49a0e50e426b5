package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidReviewOutcome is returned when a review outcome is not valid.
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")

	// ErrInvalidStage is returned when a direction stage is not valid.
	ErrInvalidStage = errors.New("invalid direction stage")

	// ErrInvalidSkillLevel is returned when a skill level is outside [0,3].
	ErrInvalidSkillLevel = errors.New("invalid skill level")

	// ErrInvalidLanguageTag is returned when a direction language tag
	// cannot be parsed as a BCP 47 tag.
	ErrInvalidLanguageTag = errors.New("invalid language tag")
)
