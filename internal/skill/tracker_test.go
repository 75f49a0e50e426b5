package skill

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/store"
)

// fakePointStore keeps skill points in memory; transactions pass through.
type fakePointStore struct {
	points map[uuid.UUID]*domain.SkillPoint
}

func (s *fakePointStore) CreateMultiple(_ context.Context, points []*domain.SkillPoint) error {
	for _, p := range points {
		copied := *p
		s.points[p.ID] = &copied
	}
	return nil
}

func (s *fakePointStore) GetByID(_ context.Context, id uuid.UUID) (*domain.SkillPoint, error) {
	point, ok := s.points[id]
	if !ok {
		return nil, store.ErrSkillPointNotFound
	}
	copied := *point
	return &copied, nil
}

func (s *fakePointStore) ListByDirection(_ context.Context, directionID uuid.UUID) ([]*domain.SkillPoint, error) {
	var out []*domain.SkillPoint
	for _, p := range s.points {
		if p.DirectionID == directionID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakePointStore) ListStale(_ context.Context, cutoff time.Time) ([]*domain.SkillPoint, error) {
	var out []*domain.SkillPoint
	for _, p := range s.points {
		if p.LastReviewedAt == nil || p.LastReviewedAt.Before(cutoff) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakePointStore) Update(_ context.Context, point *domain.SkillPoint) error {
	if _, ok := s.points[point.ID]; !ok {
		return store.ErrSkillPointNotFound
	}
	copied := *point
	s.points[point.ID] = &copied
	return nil
}

func (s *fakePointStore) WithTx(_ *sql.Tx) store.SkillPointStore { return s }

// fakeDirectionStore keeps directions in memory and records stage updates.
type fakeDirectionStore struct {
	directions   map[uuid.UUID]*domain.Direction
	stageUpdates []domain.DirectionStage
}

func (s *fakeDirectionStore) Create(_ context.Context, direction *domain.Direction) error {
	copied := *direction
	s.directions[direction.ID] = &copied
	return nil
}

func (s *fakeDirectionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Direction, error) {
	direction, ok := s.directions[id]
	if !ok {
		return nil, store.ErrDirectionNotFound
	}
	copied := *direction
	return &copied, nil
}

func (s *fakeDirectionStore) GetWithSkillPoints(
	_ context.Context,
	id uuid.UUID,
) (*domain.Direction, []*domain.SkillPoint, error) {
	direction, ok := s.directions[id]
	if !ok {
		return nil, nil, store.ErrDirectionNotFound
	}
	copied := *direction
	return &copied, nil, nil
}

func (s *fakeDirectionStore) List(_ context.Context) ([]*domain.Direction, error) {
	var out []*domain.Direction
	for _, d := range s.directions {
		copied := *d
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeDirectionStore) UpdateStage(_ context.Context, id uuid.UUID, stage domain.DirectionStage) error {
	direction, ok := s.directions[id]
	if !ok {
		return store.ErrDirectionNotFound
	}
	direction.Stage = stage
	s.stageUpdates = append(s.stageUpdates, stage)
	return nil
}

func (s *fakeDirectionStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.directions, id)
	return nil
}

func (s *fakeDirectionStore) WithTx(_ *sql.Tx) store.DirectionStore { return s }

type trackerFixture struct {
	tracker    Tracker
	points     *fakePointStore
	directions *fakeDirectionStore
	db         *sql.DB
	mock       sqlmock.Sqlmock
	direction  *domain.Direction
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	direction, err := domain.NewDirection("Agentic Retrieval Diagnostics", "zh")
	require.NoError(t, err)

	points := &fakePointStore{points: make(map[uuid.UUID]*domain.SkillPoint)}
	directions := &fakeDirectionStore{directions: map[uuid.UUID]*domain.Direction{direction.ID: direction}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker, err := NewTracker(db, points, directions, nil, nil, logger)
	require.NoError(t, err)

	return &trackerFixture{
		tracker:    tracker,
		points:     points,
		directions: directions,
		db:         db,
		mock:       mock,
		direction:  direction,
	}
}

func (f *trackerFixture) addPoint(t *testing.T, label string, level domain.SkillLevel) *domain.SkillPoint {
	t.Helper()

	point, err := domain.NewSkillPoint(f.direction.ID, label)
	require.NoError(t, err)
	point.Level = level
	require.NoError(t, f.points.CreateMultiple(context.Background(), []*domain.SkillPoint{point}))
	return point
}

func (f *trackerFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func TestNextLevel(t *testing.T) {
	t.Parallel() // Enable parallel execution

	tracker := &trackerImpl{params: NewDefaultParams()}

	testCases := []struct {
		name         string
		current      domain.SkillLevel
		outcome      domain.ReviewOutcome
		intervalDays int
		expected     domain.SkillLevel
	}{
		{
			name:     "again drops one step",
			current:  domain.SkillLevelWorking,
			outcome:  domain.ReviewOutcomeAgain,
			expected: domain.SkillLevelEmerging,
		},
		{
			name:     "again clamps at unknown",
			current:  domain.SkillLevelUnknown,
			outcome:  domain.ReviewOutcomeAgain,
			expected: domain.SkillLevelUnknown,
		},
		{
			name:         "hard never raises",
			current:      domain.SkillLevelEmerging,
			outcome:      domain.ReviewOutcomeHard,
			intervalDays: 30,
			expected:     domain.SkillLevelEmerging,
		},
		{
			name:         "good below threshold holds",
			current:      domain.SkillLevelEmerging,
			outcome:      domain.ReviewOutcomeGood,
			intervalDays: 3,
			expected:     domain.SkillLevelEmerging,
		},
		{
			name:         "good above threshold advances",
			current:      domain.SkillLevelEmerging,
			outcome:      domain.ReviewOutcomeGood,
			intervalDays: 4,
			expected:     domain.SkillLevelWorking,
		},
		{
			name:     "easy advances immediately",
			current:  domain.SkillLevelEmerging,
			outcome:  domain.ReviewOutcomeEasy,
			expected: domain.SkillLevelWorking,
		},
		{
			name:     "easy clamps at fluent",
			current:  domain.SkillLevelFluent,
			outcome:  domain.ReviewOutcomeEasy,
			expected: domain.SkillLevelFluent,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel() // Enable parallel execution

			got := tracker.nextLevel(tc.current, tc.outcome, tc.intervalDays)
			if got != tc.expected {
				t.Errorf("Expected level %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestApplyOutcomeEasyAdvancesAndMovesStage(t *testing.T) {
	f := newTrackerFixture(t)
	point := f.addPoint(t, "向量检索调参", domain.SkillLevelEmerging)

	f.expectTx()
	at := time.Now().UTC()
	updated, err := f.tracker.ApplyOutcome(context.Background(), point.ID, domain.ReviewOutcomeEasy, 0, at)
	require.NoError(t, err)

	assert.Equal(t, domain.SkillLevelWorking, updated.Level)
	require.NotNil(t, updated.LastReviewedAt)
	assert.Equal(t, at, *updated.LastReviewedAt)

	// The single point at working moves the direction into attack.
	require.NotEmpty(t, f.directions.stageUpdates)
	assert.Equal(t, domain.StageAttack, f.directions.stageUpdates[len(f.directions.stageUpdates)-1])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyOutcomeInvalid(t *testing.T) {
	f := newTrackerFixture(t)
	point := f.addPoint(t, "索引健康巡检", domain.SkillLevelEmerging)

	_, err := f.tracker.ApplyOutcome(context.Background(), point.ID, "perfect", 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestApplyOutcomeUnknownPoint(t *testing.T) {
	f := newTrackerFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.tracker.ApplyOutcome(context.Background(), uuid.New(), domain.ReviewOutcomeGood, 5, time.Now())
	assert.ErrorIs(t, err, ErrSkillPointNotFound)
}

func TestSelfAssess(t *testing.T) {
	f := newTrackerFixture(t)
	point := f.addPoint(t, "召回率评估", domain.SkillLevelUnknown)

	f.expectTx()
	at := time.Now().UTC()
	updated, err := f.tracker.SelfAssess(context.Background(), point.ID, domain.SkillLevelFluent, at)
	require.NoError(t, err)

	assert.Equal(t, domain.SkillLevelFluent, updated.Level)
	require.NotNil(t, updated.LastReviewedAt)
	assert.Equal(t, at, *updated.LastReviewedAt)

	stored, err := f.points.GetByID(context.Background(), point.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SkillLevelFluent, stored.Level)
}

func TestSelfAssessClampsLevel(t *testing.T) {
	f := newTrackerFixture(t)
	point := f.addPoint(t, "缓存命中分析", domain.SkillLevelUnknown)

	f.expectTx()
	updated, err := f.tracker.SelfAssess(context.Background(), point.ID, domain.SkillLevel(9), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.SkillLevelFluent, updated.Level)
}

func TestRecomputeStage(t *testing.T) {
	f := newTrackerFixture(t)
	f.addPoint(t, "query 改写", domain.SkillLevelFluent)
	f.addPoint(t, "重排序", domain.SkillLevelFluent)

	f.expectTx()
	derived, err := f.tracker.RecomputeStage(context.Background(), f.direction.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageStabilize, derived)
}

func TestWithTxJoinsCallerTransaction(t *testing.T) {
	f := newTrackerFixture(t)
	point := f.addPoint(t, "召回率评估", domain.SkillLevelUnknown)

	// The caller owns the only transaction; the scoped tracker opens none.
	f.expectTx()
	tx, err := f.db.Begin()
	require.NoError(t, err)

	at := time.Now().UTC()
	updated, err := f.tracker.WithTx(tx).SelfAssess(context.Background(), point.ID, domain.SkillLevelWorking, at)
	require.NoError(t, err)
	assert.Equal(t, domain.SkillLevelWorking, updated.Level)

	require.NoError(t, tx.Commit())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
