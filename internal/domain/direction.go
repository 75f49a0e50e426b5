package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// DirectionStage describes how far a direction has progressed.
// It is derived from the aggregate skill-point levels by the stage
// package and is never ground truth on its own: the cached value must
// be recomputable from the direction's skill points at any time.
type DirectionStage string

// Possible direction stage values, ordered from least to most advanced.
const (
	StageExplore   DirectionStage = "explore"
	StageShape     DirectionStage = "shape"
	StageAttack    DirectionStage = "attack"
	StageStabilize DirectionStage = "stabilize"
)

// Direction-specific validation errors
var (
	// ErrDirectionIDEmpty is returned when a direction ID is empty or nil.
	ErrDirectionIDEmpty = errors.New("direction ID cannot be empty")

	// ErrDirectionNameEmpty is returned when a direction name is empty.
	ErrDirectionNameEmpty = errors.New("direction name cannot be empty")
)

// Direction represents a user-tracked topic of study. It owns an ordered
// set of skill points and carries the language its cards inherit.
type Direction struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Language      string         `json:"language"` // BCP 47 tag, e.g. "en", "zh"
	Stage         DirectionStage `json:"stage"`
	QuarterlyGoal string         `json:"quarterly_goal,omitempty"`
	SkillPointIDs []uuid.UUID    `json:"skill_point_ids"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewDirection creates a new Direction with the given name and language
// tag. New directions start in the explore stage with no skill points.
// Returns an error if validation fails.
func NewDirection(name, languageTag string) (*Direction, error) {
	now := time.Now().UTC()
	direction := &Direction{
		ID:        uuid.New(),
		Name:      name,
		Language:  languageTag,
		Stage:     StageExplore,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := direction.Validate(); err != nil {
		return nil, err
	}

	return direction, nil
}

// Validate checks if the Direction has valid data.
// Returns an error if any field fails validation.
func (d *Direction) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDirectionIDEmpty
	}

	if d.Name == "" {
		return ErrDirectionNameEmpty
	}

	if _, err := language.Parse(d.Language); err != nil {
		return ErrInvalidLanguageTag
	}

	if !IsValidStage(d.Stage) {
		return ErrInvalidStage
	}

	return nil
}

// SetStage replaces the cached derived stage and updates the UpdatedAt
// timestamp. Callers must only pass a stage computed by the stage package.
func (d *Direction) SetStage(stage DirectionStage) error {
	if !IsValidStage(stage) {
		return ErrInvalidStage
	}

	d.Stage = stage
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValidStage checks if the given stage is a valid DirectionStage.
func IsValidStage(stage DirectionStage) bool {
	switch stage {
	case StageExplore, StageShape, StageAttack, StageStabilize:
		return true
	default:
		return false
	}
}

// StageRank returns the ordinal position of a stage, with explore at 0.
// Unknown stages rank below explore so comparisons fail safe.
func StageRank(stage DirectionStage) int {
	switch stage {
	case StageExplore:
		return 0
	case StageShape:
		return 1
	case StageAttack:
		return 2
	case StageStabilize:
		return 3
	default:
		return -1
	}
}
