package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/domain/srs"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/store"
)

// DirectionCount sizes one direction's slice of the day: how many cards
// are due and how many skill points have gone stale.
type DirectionCount struct {
	DirectionID uuid.UUID `json:"direction_id"`
	DueCards    int       `json:"due_cards"`
	StalePoints int       `json:"stale_points"`
}

// TodayPlan is the read-only review plan for one instant. Due cards are
// ordered by (due time, direction ID, card ID); computing the plan twice
// for the same instant yields the same plan.
type TodayPlan struct {
	GeneratedAt      time.Time            `json:"generated_at"`
	DueCards         []*domain.Card       `json:"due_cards"`
	StaleSkillPoints []*domain.SkillPoint `json:"stale_skill_points"`
	Counts           []DirectionCount     `json:"counts"`
	Vault            *store.VaultSummary  `json:"vault"`
}

// Scheduler computes review plans and applies review outcomes to cards.
type Scheduler interface {
	// TodayPlan returns the due set for the given instant: due cards,
	// stale skill points, per-direction counts, and the vault summary.
	// It mutates nothing.
	TodayPlan(ctx context.Context, now time.Time) (*TodayPlan, error)

	// ApplyOutcome advances one card's review state for an outcome.
	// The update is a compare-and-set against the card's current due
	// time; a second outcome racing on the same baseline fails with
	// ErrOutcomeConflict and leaves the stored state untouched.
	ApplyOutcome(
		ctx context.Context,
		cardID uuid.UUID,
		outcome domain.ReviewOutcome,
		now time.Time,
	) (*domain.Card, error)

	// Postpone pushes a card's due time forward by whole days without
	// touching its interval.
	Postpone(ctx context.Context, cardID uuid.UUID, days int) (*domain.Card, error)
}

type schedulerImpl struct {
	cards         store.CardStore
	points        store.SkillPointStore
	vault         store.VaultSummaryStore
	srsService    srs.Service
	stalenessDays int
	logger        *slog.Logger
}

// Config carries the scheduler's tunables.
type Config struct {
	// SkillStalenessDays is how long a skill point may go unreviewed
	// before it joins the self-review set.
	SkillStalenessDays int
}

// NewScheduler creates a Scheduler over the given stores.
// It returns an error if any of the required dependencies are nil.
func NewScheduler(
	cards store.CardStore,
	points store.SkillPointStore,
	vault store.VaultSummaryStore,
	srsService srs.Service,
	cfg Config,
	log *slog.Logger,
) (Scheduler, error) {
	if cards == nil {
		return nil, &SchedulerError{Operation: "create_scheduler", Message: "cards store cannot be nil"}
	}
	if points == nil {
		return nil, &SchedulerError{Operation: "create_scheduler", Message: "points store cannot be nil"}
	}
	if vault == nil {
		return nil, &SchedulerError{Operation: "create_scheduler", Message: "vault store cannot be nil"}
	}
	if srsService == nil {
		srsService = srs.NewDefaultService()
	}
	stalenessDays := cfg.SkillStalenessDays
	if stalenessDays <= 0 {
		stalenessDays = 14
	}
	if log == nil {
		log = slog.Default()
	}

	return &schedulerImpl{
		cards:         cards,
		points:        points,
		vault:         vault,
		srsService:    srsService,
		stalenessDays: stalenessDays,
		logger:        log.With(slog.String("component", "review_scheduler")),
	}, nil
}

// Ensure schedulerImpl implements Scheduler interface
var _ Scheduler = (*schedulerImpl)(nil)

// TodayPlan implements Scheduler.TodayPlan
func (s *schedulerImpl) TodayPlan(ctx context.Context, now time.Time) (*TodayPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dueCards, err := s.cards.ListDue(ctx, now)
	if err != nil {
		return nil, NewSchedulerError("today_plan", "failed to list due cards", err)
	}
	// The plan owns its ordering guarantee; do not trust the store's.
	sortDueCards(dueCards)

	cutoff := now.AddDate(0, 0, -s.stalenessDays)
	stale, err := s.points.ListStale(ctx, cutoff)
	if err != nil {
		return nil, NewSchedulerError("today_plan", "failed to list stale skill points", err)
	}

	summary, err := s.vault.Summary(ctx)
	if err != nil {
		return nil, NewSchedulerError("today_plan", "failed to load vault summary", err)
	}

	plan := &TodayPlan{
		GeneratedAt:      now,
		DueCards:         dueCards,
		StaleSkillPoints: stale,
		Counts:           directionCounts(dueCards, stale),
		Vault:            summary,
	}

	log.Info("today plan computed",
		slog.Int("due_cards", len(dueCards)),
		slog.Int("stale_skill_points", len(stale)),
		slog.Int("directions", len(plan.Counts)))
	return plan, nil
}

// ApplyOutcome implements Scheduler.ApplyOutcome
func (s *schedulerImpl) ApplyOutcome(
	ctx context.Context,
	cardID uuid.UUID,
	outcome domain.ReviewOutcome,
	now time.Time,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, NewSchedulerError("apply_outcome", "failed to load card", err)
	}

	next, err := s.srsService.CalculateNextReview(card.Review, outcome, now)
	if err != nil {
		return nil, NewSchedulerError("apply_outcome", "failed to calculate next review", err)
	}

	if err := s.cards.UpdateReviewState(ctx, cardID, card.Review.DueAt, next); err != nil {
		return nil, NewSchedulerError("apply_outcome", "failed to store review state", err)
	}

	log.Info("review outcome applied",
		slog.String("card_id", cardID.String()),
		slog.String("outcome", string(outcome)),
		slog.Int("interval_days", next.IntervalDays),
		slog.Time("due_at", next.DueAt))

	card.Review = next
	return card, nil
}

// Postpone implements Scheduler.Postpone
func (s *schedulerImpl) Postpone(ctx context.Context, cardID uuid.UUID, days int) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, NewSchedulerError("postpone", "failed to load card", err)
	}

	next, err := s.srsService.PostponeReview(card.Review, days)
	if err != nil {
		return nil, NewSchedulerError("postpone", "failed to postpone review", err)
	}

	if err := s.cards.UpdateReviewState(ctx, cardID, card.Review.DueAt, next); err != nil {
		return nil, NewSchedulerError("postpone", "failed to store review state", err)
	}

	card.Review = next
	return card, nil
}

// sortDueCards orders cards by (due time, direction ID, card ID).
func sortDueCards(cards []*domain.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].Review.DueAt.Equal(cards[j].Review.DueAt) {
			return cards[i].Review.DueAt.Before(cards[j].Review.DueAt)
		}
		if cards[i].DirectionID != cards[j].DirectionID {
			return cards[i].DirectionID.String() < cards[j].DirectionID.String()
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
}

// directionCounts aggregates due cards and stale points per direction,
// ordered by direction ID for stable output.
func directionCounts(cards []*domain.Card, points []*domain.SkillPoint) []DirectionCount {
	byDirection := make(map[uuid.UUID]*DirectionCount)

	get := func(id uuid.UUID) *DirectionCount {
		if c, ok := byDirection[id]; ok {
			return c
		}
		c := &DirectionCount{DirectionID: id}
		byDirection[id] = c
		return c
	}

	for _, card := range cards {
		get(card.DirectionID).DueCards++
	}
	for _, point := range points {
		get(point.DirectionID).StalePoints++
	}

	counts := make([]DirectionCount, 0, len(byDirection))
	for _, c := range byDirection {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].DirectionID.String() < counts[j].DirectionID.String()
	})
	return counts
}
