package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/store"
)

// fakeCardStore keeps cards in memory and enforces the same
// compare-and-set semantics as the postgres store.
type fakeCardStore struct {
	cards map[uuid.UUID]*domain.Card
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (s *fakeCardStore) CreateMultiple(_ context.Context, cards []*domain.Card) error {
	for _, c := range cards {
		copied := *c
		s.cards[c.ID] = &copied
	}
	return nil
}

func (s *fakeCardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	card, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (s *fakeCardStore) ListByDirection(_ context.Context, directionID uuid.UUID) ([]*domain.Card, error) {
	var out []*domain.Card
	for _, c := range s.cards {
		if c.DirectionID == directionID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeCardStore) ListDue(_ context.Context, now time.Time) ([]*domain.Card, error) {
	var out []*domain.Card
	for _, c := range s.cards {
		if !c.Review.DueAt.After(now) {
			copied := *c
			out = append(out, &copied)
		}
	}
	// Deliberately unordered; the scheduler owns the ordering.
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (s *fakeCardStore) UpdateReviewState(
	_ context.Context,
	id uuid.UUID,
	baselineDueAt time.Time,
	next domain.ReviewState,
) error {
	card, ok := s.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}
	if !card.Review.DueAt.Equal(baselineDueAt) {
		return store.ErrOutcomeConflict
	}
	card.Review = next
	return nil
}

func (s *fakeCardStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.cards, id)
	return nil
}

func (s *fakeCardStore) WithTx(_ *sql.Tx) store.CardStore { return s }

// fakeStalePointStore serves a fixed stale set.
type fakeStalePointStore struct {
	points []*domain.SkillPoint
}

func (s *fakeStalePointStore) CreateMultiple(_ context.Context, points []*domain.SkillPoint) error {
	s.points = append(s.points, points...)
	return nil
}

func (s *fakeStalePointStore) GetByID(_ context.Context, id uuid.UUID) (*domain.SkillPoint, error) {
	for _, p := range s.points {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrSkillPointNotFound
}

func (s *fakeStalePointStore) ListByDirection(_ context.Context, directionID uuid.UUID) ([]*domain.SkillPoint, error) {
	var out []*domain.SkillPoint
	for _, p := range s.points {
		if p.DirectionID == directionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStalePointStore) ListStale(_ context.Context, cutoff time.Time) ([]*domain.SkillPoint, error) {
	var out []*domain.SkillPoint
	for _, p := range s.points {
		if p.LastReviewedAt == nil || p.LastReviewedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStalePointStore) Update(_ context.Context, _ *domain.SkillPoint) error { return nil }

func (s *fakeStalePointStore) WithTx(_ *sql.Tx) store.SkillPointStore { return s }

// fakeVaultStore serves a fixed summary.
type fakeVaultStore struct {
	summary store.VaultSummary
}

func (s *fakeVaultStore) Summary(_ context.Context) (*store.VaultSummary, error) {
	copied := s.summary
	return &copied, nil
}

type schedulerFixture struct {
	scheduler Scheduler
	cards     *fakeCardStore
	points    *fakeStalePointStore
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	cards := newFakeCardStore()
	points := &fakeStalePointStore{}
	vault := &fakeVaultStore{summary: store.VaultSummary{Cards: 3, Directions: 1}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched, err := NewScheduler(cards, points, vault, nil, Config{SkillStalenessDays: 14}, logger)
	require.NoError(t, err)

	return &schedulerFixture{scheduler: sched, cards: cards, points: points}
}

func newDueCard(t *testing.T, directionID uuid.UUID, dueAt time.Time) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(directionID, "向量召回巡检", "检查召回率与延迟指标。", nil, 0.5, nil)
	require.NoError(t, err)
	card.Review.DueAt = dueAt
	return card
}

func TestTodayPlanOrdering(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	directionA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	directionB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	var created []*domain.Card
	for i := 0; i < 5; i++ {
		created = append(created, newDueCard(t, directionB, now.Add(-time.Duration(i)*time.Hour)))
		created = append(created, newDueCard(t, directionA, now.Add(-time.Duration(i)*time.Hour)))
	}
	// One card not yet due must stay out of the plan.
	future := newDueCard(t, directionA, now.Add(48*time.Hour))
	created = append(created, future)
	require.NoError(t, f.cards.CreateMultiple(context.Background(), created))

	plan, err := f.scheduler.TodayPlan(context.Background(), now)
	require.NoError(t, err)

	assert.Len(t, plan.DueCards, 10)
	for _, card := range plan.DueCards {
		assert.NotEqual(t, future.ID, card.ID)
	}
	for i := 1; i < len(plan.DueCards); i++ {
		prev, curr := plan.DueCards[i-1], plan.DueCards[i]
		if prev.Review.DueAt.Equal(curr.Review.DueAt) {
			if prev.DirectionID == curr.DirectionID {
				assert.Less(t, prev.ID.String(), curr.ID.String())
			} else {
				assert.Less(t, prev.DirectionID.String(), curr.DirectionID.String())
			}
		} else {
			assert.True(t, prev.Review.DueAt.Before(curr.Review.DueAt))
		}
	}
}

func TestTodayPlanCountsAndStalePoints(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	directionID := uuid.New()
	require.NoError(t, f.cards.CreateMultiple(context.Background(), []*domain.Card{
		newDueCard(t, directionID, now.Add(-time.Hour)),
		newDueCard(t, directionID, now.Add(-2*time.Hour)),
	}))

	fresh := now.Add(-time.Hour)
	old := now.AddDate(0, 0, -30)
	point1, err := domain.NewSkillPoint(directionID, "never reviewed")
	require.NoError(t, err)
	point2, err := domain.NewSkillPoint(directionID, "reviewed long ago")
	require.NoError(t, err)
	point2.LastReviewedAt = &old
	point3, err := domain.NewSkillPoint(directionID, "freshly reviewed")
	require.NoError(t, err)
	point3.LastReviewedAt = &fresh
	require.NoError(t, f.points.CreateMultiple(context.Background(),
		[]*domain.SkillPoint{point1, point2, point3}))

	plan, err := f.scheduler.TodayPlan(context.Background(), now)
	require.NoError(t, err)

	assert.Len(t, plan.StaleSkillPoints, 2)
	require.Len(t, plan.Counts, 1)
	assert.Equal(t, directionID, plan.Counts[0].DirectionID)
	assert.Equal(t, 2, plan.Counts[0].DueCards)
	assert.Equal(t, 2, plan.Counts[0].StalePoints)
	require.NotNil(t, plan.Vault)
	assert.Equal(t, 3, plan.Vault.Cards)
}

func TestTodayPlanIsRepeatable(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	directionID := uuid.New()
	require.NoError(t, f.cards.CreateMultiple(context.Background(), []*domain.Card{
		newDueCard(t, directionID, now.Add(-time.Hour)),
		newDueCard(t, directionID, now.Add(-2*time.Hour)),
		newDueCard(t, directionID, now.Add(-3*time.Hour)),
	}))

	first, err := f.scheduler.TodayPlan(context.Background(), now)
	require.NoError(t, err)
	second, err := f.scheduler.TodayPlan(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, second.DueCards, len(first.DueCards))
	for i := range first.DueCards {
		assert.Equal(t, first.DueCards[i].ID, second.DueCards[i].ID)
	}
}

func TestApplyOutcomeAdvancesReviewState(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	card := newDueCard(t, uuid.New(), now.Add(-time.Hour))
	require.NoError(t, f.cards.CreateMultiple(context.Background(), []*domain.Card{card}))

	updated, err := f.scheduler.ApplyOutcome(context.Background(), card.ID, domain.ReviewOutcomeGood, now)
	require.NoError(t, err)

	assert.Equal(t, domain.ReviewOutcomeGood, updated.Review.LastOutcome)
	assert.Greater(t, updated.Review.IntervalDays, 0)
	assert.True(t, updated.Review.DueAt.After(now))

	stored, err := f.cards.GetByID(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Review, stored.Review)
}

func TestApplyOutcomeConflict(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	card := newDueCard(t, uuid.New(), now.Add(-time.Hour))
	require.NoError(t, f.cards.CreateMultiple(context.Background(), []*domain.Card{card}))

	// Load the card, then let a first outcome advance it underneath.
	loaded, err := f.cards.GetByID(context.Background(), card.ID)
	require.NoError(t, err)

	_, err = f.scheduler.ApplyOutcome(context.Background(), card.ID, domain.ReviewOutcomeGood, now)
	require.NoError(t, err)

	// The racing second outcome targets the stale baseline and loses.
	err = f.cards.UpdateReviewState(context.Background(), card.ID, loaded.Review.DueAt, loaded.Review)
	assert.ErrorIs(t, err, store.ErrOutcomeConflict)

	// Through the scheduler a retry sees fresh state and succeeds.
	_, err = f.scheduler.ApplyOutcome(context.Background(), card.ID, domain.ReviewOutcomeAgain, now)
	assert.NoError(t, err)
}

func TestApplyOutcomeUnknownCard(t *testing.T) {
	f := newSchedulerFixture(t)

	_, err := f.scheduler.ApplyOutcome(context.Background(), uuid.New(), domain.ReviewOutcomeGood, time.Now())
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestPostpone(t *testing.T) {
	f := newSchedulerFixture(t)
	now := time.Now().UTC()

	card := newDueCard(t, uuid.New(), now)
	card.Review.IntervalDays = 4
	require.NoError(t, f.cards.CreateMultiple(context.Background(), []*domain.Card{card}))

	updated, err := f.scheduler.Postpone(context.Background(), card.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.Review.IntervalDays)
	assert.Equal(t, card.Review.DueAt.AddDate(0, 0, 2), updated.Review.DueAt)
}
