package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SkillLevel is the 0-3 ordinal mastery level of a skill point.
type SkillLevel int

// Possible skill level values, ordered from least to most mastered.
const (
	SkillLevelUnknown  SkillLevel = 0
	SkillLevelEmerging SkillLevel = 1
	SkillLevelWorking  SkillLevel = 2
	SkillLevelFluent   SkillLevel = 3
)

// SkillPoint-specific validation errors
var (
	// ErrSkillPointIDEmpty is returned when a skill point ID is empty or nil.
	ErrSkillPointIDEmpty = errors.New("skill point ID cannot be empty")

	// ErrSkillPointDirectionEmpty is returned when a skill point's direction ID is empty or nil.
	ErrSkillPointDirectionEmpty = errors.New("skill point direction ID cannot be empty")

	// ErrSkillPointLabelEmpty is returned when a skill point label is empty.
	ErrSkillPointLabelEmpty = errors.New("skill point label cannot be empty")
)

// String returns the canonical name of the level.
func (l SkillLevel) String() string {
	switch l {
	case SkillLevelUnknown:
		return "unknown"
	case SkillLevelEmerging:
		return "emerging"
	case SkillLevelWorking:
		return "working"
	case SkillLevelFluent:
		return "fluent"
	default:
		return "unknown"
	}
}

// ParseSkillLevel converts a canonical level name back to a SkillLevel.
func ParseSkillLevel(value string) (SkillLevel, error) {
	switch value {
	case "unknown":
		return SkillLevelUnknown, nil
	case "emerging":
		return SkillLevelEmerging, nil
	case "working":
		return SkillLevelWorking, nil
	case "fluent":
		return SkillLevelFluent, nil
	default:
		return SkillLevelUnknown, ErrInvalidSkillLevel
	}
}

// ClampSkillLevel forces an arbitrary integer into the valid [0,3] range.
func ClampSkillLevel(value int) SkillLevel {
	if value < int(SkillLevelUnknown) {
		return SkillLevelUnknown
	}
	if value > int(SkillLevelFluent) {
		return SkillLevelFluent
	}
	return SkillLevel(value)
}

// SkillPoint represents a named sub-skill within a direction, leveled
// 0-3. Its level is mutated exclusively by the skill tracker in response
// to review outcomes or manual self-assessment during onboarding.
type SkillPoint struct {
	ID             uuid.UUID  `json:"id"`
	DirectionID    uuid.UUID  `json:"direction_id"`
	Label          string     `json:"label"`
	Summary        string     `json:"summary,omitempty"`
	Level          SkillLevel `json:"level"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewSkillPoint creates a new SkillPoint under the given direction.
// New skill points start at level unknown with no review history.
// Returns an error if validation fails.
func NewSkillPoint(directionID uuid.UUID, label string) (*SkillPoint, error) {
	now := time.Now().UTC()
	point := &SkillPoint{
		ID:          uuid.New(),
		DirectionID: directionID,
		Label:       label,
		Level:       SkillLevelUnknown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := point.Validate(); err != nil {
		return nil, err
	}

	return point, nil
}

// Validate checks if the SkillPoint has valid data.
// Returns an error if any field fails validation.
func (p *SkillPoint) Validate() error {
	if p.ID == uuid.Nil {
		return ErrSkillPointIDEmpty
	}

	if p.DirectionID == uuid.Nil {
		return ErrSkillPointDirectionEmpty
	}

	if p.Label == "" {
		return ErrSkillPointLabelEmpty
	}

	if p.Level < SkillLevelUnknown || p.Level > SkillLevelFluent {
		return ErrInvalidSkillLevel
	}

	return nil
}
