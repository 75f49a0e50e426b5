// Package stage derives a direction's progress stage from the aggregate
// levels of its skill points. The derivation is a pure function: the
// stage cached on a direction is never ground truth and must be
// recomputable from the skill points at any time.
package stage

import (
	"github.com/cklxx/knowflow/internal/domain"
)

// Derive computes the stage for the given skill point levels.
//
// The derivation is monotonic: raising any skill level never moves the
// stage backward. Boundary values favor the earlier, less advanced
// stage, so a direction sitting exactly on the shape threshold stays in
// explore. A direction with no skill points is still exploring.
func Derive(points []*domain.SkillPoint, params *Params) domain.DirectionStage {
	if len(points) == 0 {
		return domain.StageExplore
	}

	var atLeast1, atLeast2, at3 int
	for _, point := range points {
		if point.Level >= domain.SkillLevelEmerging {
			atLeast1++
		}
		if point.Level >= domain.SkillLevelWorking {
			atLeast2++
		}
		if point.Level == domain.SkillLevelFluent {
			at3++
		}
	}

	if atLeast1 == 0 {
		return domain.StageExplore
	}

	total := float64(len(points))
	frac1 := float64(atLeast1) / total
	frac2 := float64(atLeast2) / total
	frac3 := float64(at3) / total

	if frac2 < params.AttackFraction {
		if frac1 > params.ShapeThreshold {
			return domain.StageShape
		}
		// Some movement, but below the shape threshold: keep exploring.
		return domain.StageExplore
	}

	if frac3 >= params.StabilizeFraction {
		return domain.StageStabilize
	}
	return domain.StageAttack
}
