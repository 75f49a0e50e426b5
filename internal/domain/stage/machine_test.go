package stage

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
)

func pointsWithLevels(t *testing.T, levels ...domain.SkillLevel) []*domain.SkillPoint {
	t.Helper()
	directionID := uuid.New()
	points := make([]*domain.SkillPoint, 0, len(levels))
	for i, level := range levels {
		point, err := domain.NewSkillPoint(directionID, "skill")
		if err != nil {
			t.Fatalf("Expected no error creating skill point %d, got %v", i, err)
		}
		point.Level = level
		points = append(points, point)
	}
	return points
}

func TestDerive(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		levels   []domain.SkillLevel
		expected domain.DirectionStage
	}{
		{
			name:     "No skill points stays in explore",
			levels:   nil,
			expected: domain.StageExplore,
		},
		{
			name:     "All level zero stays in explore",
			levels:   []domain.SkillLevel{0, 0, 0, 0},
			expected: domain.StageExplore,
		},
		{
			name:     "Movement exactly at the shape threshold favors explore",
			levels:   []domain.SkillLevel{1, 0, 0, 0}, // frac >=1 is 0.25, not above it
			expected: domain.StageExplore,
		},
		{
			name:     "Movement above the shape threshold reaches shape",
			levels:   []domain.SkillLevel{1, 1, 0, 0},
			expected: domain.StageShape,
		},
		{
			name:     "Half at working reaches attack",
			levels:   []domain.SkillLevel{2, 2, 1, 0},
			expected: domain.StageAttack,
		},
		{
			name:     "Fewer than half at working stays in shape",
			levels:   []domain.SkillLevel{2, 1, 1, 0},
			expected: domain.StageShape,
		},
		{
			name:     "Half fluent reaches stabilize",
			levels:   []domain.SkillLevel{3, 3, 2, 1},
			expected: domain.StageStabilize,
		},
		{
			name:     "Fewer than half fluent stays in attack",
			levels:   []domain.SkillLevel{3, 2, 2, 1},
			expected: domain.StageAttack,
		},
		{
			name:     "Everything fluent stabilizes",
			levels:   []domain.SkillLevel{3, 3, 3},
			expected: domain.StageStabilize,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			points := pointsWithLevels(t, tc.levels...)
			result := Derive(points, params)
			if result != tc.expected {
				t.Errorf("Expected stage %s, got %s", tc.expected, result)
			}
		})
	}
}

// Raising any single skill level must never move the stage backward.
func TestDeriveMonotonic(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	seeds := [][]domain.SkillLevel{
		{0, 0, 0},
		{1, 0, 0, 0},
		{1, 1, 2, 0},
		{2, 2, 1, 1},
		{3, 2, 2, 0},
		{3, 3, 1, 1, 0},
	}

	for _, seed := range seeds {
		points := pointsWithLevels(t, seed...)
		before := Derive(points, params)

		for i := range points {
			if points[i].Level == domain.SkillLevelFluent {
				continue
			}
			raised := pointsWithLevels(t, seed...)
			raised[i].Level++
			after := Derive(raised, params)
			if domain.StageRank(after) < domain.StageRank(before) {
				t.Errorf("Raising point %d of %v moved stage backward: %s -> %s", i, seed, before, after)
			}
		}
	}
}
