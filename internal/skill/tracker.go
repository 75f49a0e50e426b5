package skill

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/domain/stage"
	"github.com/cklxx/knowflow/internal/store"
)

// Tracker applies review outcomes and self-assessments to skill points.
type Tracker interface {
	// ApplyOutcome adjusts a skill point's level for one review outcome.
	// intervalDays is the reviewed card's interval before the outcome;
	// good outcomes only advance the level once that interval exceeds
	// the level's threshold. The mutation and the resulting direction
	// stage recomputation are persisted in one transaction.
	ApplyOutcome(
		ctx context.Context,
		pointID uuid.UUID,
		outcome domain.ReviewOutcome,
		intervalDays int,
		at time.Time,
	) (*domain.SkillPoint, error)

	// SelfAssess sets a skill point's level directly, bypassing outcome
	// thresholds, and stamps lastReviewedAt with the assessment time.
	SelfAssess(
		ctx context.Context,
		pointID uuid.UUID,
		level domain.SkillLevel,
		at time.Time,
	) (*domain.SkillPoint, error)

	// RecomputeStage re-derives and persists the direction's stage from
	// its current skill points, returning the derived stage.
	RecomputeStage(ctx context.Context, directionID uuid.UUID) (domain.DirectionStage, error)

	// WithTx returns a Tracker whose mutations join the given
	// transaction instead of opening their own. The caller owns the
	// transaction lifecycle; the tracker never commits or rolls back.
	WithTx(tx *sql.Tx) Tracker
}

type trackerImpl struct {
	db          *sql.DB
	points      store.SkillPointStore
	directions  store.DirectionStore
	params      *Params
	stageParams *stage.Params
	logger      *slog.Logger

	// tx, when set, scopes every mutation to the caller's transaction.
	tx *sql.Tx
}

// NewTracker creates a Tracker over the given stores.
// It returns an error if any of the required dependencies are nil.
// Nil params fall back to defaults.
func NewTracker(
	db *sql.DB,
	points store.SkillPointStore,
	directions store.DirectionStore,
	params *Params,
	stageParams *stage.Params,
	logger *slog.Logger,
) (Tracker, error) {
	if db == nil {
		return nil, &TrackerError{Operation: "create_tracker", Message: "db cannot be nil"}
	}
	if points == nil {
		return nil, &TrackerError{Operation: "create_tracker", Message: "points store cannot be nil"}
	}
	if directions == nil {
		return nil, &TrackerError{Operation: "create_tracker", Message: "directions store cannot be nil"}
	}
	if params == nil {
		params = NewDefaultParams()
	}
	if stageParams == nil {
		stageParams = stage.NewDefaultParams()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &trackerImpl{
		db:          db,
		points:      points,
		directions:  directions,
		params:      params,
		stageParams: stageParams,
		logger:      logger.With(slog.String("component", "skill_tracker")),
	}, nil
}

// Ensure trackerImpl implements Tracker interface
var _ Tracker = (*trackerImpl)(nil)

// WithTx implements Tracker.WithTx
func (t *trackerImpl) WithTx(tx *sql.Tx) Tracker {
	scoped := *t
	scoped.tx = tx
	return &scoped
}

// run executes fn in the tracker's transaction scope: the caller's
// transaction when one is attached, a fresh one otherwise.
func (t *trackerImpl) run(ctx context.Context, fn store.TxFn) error {
	if t.tx != nil {
		return fn(ctx, t.tx)
	}
	return store.RunInTransaction(ctx, t.db, fn)
}

// ApplyOutcome implements Tracker.ApplyOutcome
func (t *trackerImpl) ApplyOutcome(
	ctx context.Context,
	pointID uuid.UUID,
	outcome domain.ReviewOutcome,
	intervalDays int,
	at time.Time,
) (*domain.SkillPoint, error) {
	if !domain.IsValidReviewOutcome(outcome) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	return t.mutate(ctx, "apply_outcome", pointID, at, func(point *domain.SkillPoint) {
		before := point.Level
		point.Level = t.nextLevel(point.Level, outcome, intervalDays)
		if point.Level != before {
			t.logger.Info("skill level changed",
				slog.String("skill_point_id", pointID.String()),
				slog.String("outcome", string(outcome)),
				slog.String("from", before.String()),
				slog.String("to", point.Level.String()))
		}
	})
}

// SelfAssess implements Tracker.SelfAssess
func (t *trackerImpl) SelfAssess(
	ctx context.Context,
	pointID uuid.UUID,
	level domain.SkillLevel,
	at time.Time,
) (*domain.SkillPoint, error) {
	clamped := domain.ClampSkillLevel(int(level))

	return t.mutate(ctx, "self_assess", pointID, at, func(point *domain.SkillPoint) {
		point.Level = clamped
	})
}

// RecomputeStage implements Tracker.RecomputeStage
func (t *trackerImpl) RecomputeStage(
	ctx context.Context,
	directionID uuid.UUID,
) (domain.DirectionStage, error) {
	var derived domain.DirectionStage
	err := t.run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		derived, err = t.syncStage(ctx, t.points.WithTx(tx), t.directions.WithTx(tx), directionID)
		return err
	})
	if err != nil {
		return "", NewTrackerError("recompute_stage", "failed to recompute direction stage", err)
	}
	return derived, nil
}

// mutate loads, updates, and saves one skill point and re-derives the
// owning direction's stage inside a single transaction.
func (t *trackerImpl) mutate(
	ctx context.Context,
	operation string,
	pointID uuid.UUID,
	at time.Time,
	apply func(point *domain.SkillPoint),
) (*domain.SkillPoint, error) {
	var updated *domain.SkillPoint

	err := t.run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txPoints := t.points.WithTx(tx)
		txDirections := t.directions.WithTx(tx)

		point, err := txPoints.GetByID(ctx, pointID)
		if err != nil {
			return err
		}

		apply(point)
		reviewedAt := at
		point.LastReviewedAt = &reviewedAt
		point.UpdatedAt = at

		if err := txPoints.Update(ctx, point); err != nil {
			return err
		}

		if _, err := t.syncStage(ctx, txPoints, txDirections, point.DirectionID); err != nil {
			return err
		}

		updated = point
		return nil
	})
	if err != nil {
		return nil, NewTrackerError(operation, "failed to update skill point", err)
	}

	return updated, nil
}

// syncStage derives the stage from the direction's current points and
// persists it when it moved.
func (t *trackerImpl) syncStage(
	ctx context.Context,
	points store.SkillPointStore,
	directions store.DirectionStore,
	directionID uuid.UUID,
) (domain.DirectionStage, error) {
	all, err := points.ListByDirection(ctx, directionID)
	if err != nil {
		return "", err
	}

	direction, err := directions.GetByID(ctx, directionID)
	if err != nil {
		return "", err
	}

	derived := stage.Derive(all, t.stageParams)
	if derived == direction.Stage {
		return derived, nil
	}

	if err := directions.UpdateStage(ctx, directionID, derived); err != nil {
		return "", err
	}

	t.logger.Info("direction stage moved",
		slog.String("direction_id", directionID.String()),
		slog.String("from", string(direction.Stage)),
		slog.String("to", string(derived)))
	return derived, nil
}

// nextLevel applies the advancement rules: again drops one step, hard
// holds, good advances once the proven interval exceeds the level's
// threshold, easy advances immediately. Always clamped to [0, 3].
func (t *trackerImpl) nextLevel(
	current domain.SkillLevel,
	outcome domain.ReviewOutcome,
	intervalDays int,
) domain.SkillLevel {
	switch outcome {
	case domain.ReviewOutcomeAgain:
		return domain.ClampSkillLevel(int(current) - 1)
	case domain.ReviewOutcomeHard:
		return current
	case domain.ReviewOutcomeGood:
		if intervalDays > t.params.GoodIntervalThresholdDays[current] {
			return domain.ClampSkillLevel(int(current) + 1)
		}
		return current
	case domain.ReviewOutcomeEasy:
		return domain.ClampSkillLevel(int(current) + 1)
	default:
		return current
	}
}
