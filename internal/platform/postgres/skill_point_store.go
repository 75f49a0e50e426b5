package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/store"
)

// PostgresSkillPointStore implements the store.SkillPointStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSkillPointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSkillPointStore creates a new PostgreSQL implementation of the
// SkillPointStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSkillPointStore(db store.DBTX, logger *slog.Logger) *PostgresSkillPointStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSkillPointStore{
		db:     db,
		logger: logger.With(slog.String("component", "skill_point_store")),
	}
}

// Ensure PostgresSkillPointStore implements store.SkillPointStore interface
var _ store.SkillPointStore = (*PostgresSkillPointStore)(nil)

// CreateMultiple implements store.SkillPointStore.CreateMultiple
// Run within a transaction for atomicity.
func (s *PostgresSkillPointStore) CreateMultiple(ctx context.Context, points []*domain.SkillPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO skill_points (id, direction_id, label, summary, level, last_reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, point := range points {
		if err := point.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		var lastReviewedAt sql.NullTime
		if point.LastReviewedAt != nil {
			lastReviewedAt = sql.NullTime{Time: *point.LastReviewedAt, Valid: true}
		}

		_, err := s.db.ExecContext(
			ctx,
			query,
			point.ID,
			point.DirectionID,
			point.Label,
			point.Summary,
			int(point.Level),
			lastReviewedAt,
			point.CreatedAt,
			point.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create skill point",
				slog.String("error", err.Error()),
				slog.String("skill_point_id", point.ID.String()))
			return MapError(err)
		}
	}

	log.Info("skill points created", slog.Int("count", len(points)))
	return nil
}

// GetByID implements store.SkillPointStore.GetByID
// Returns store.ErrSkillPointNotFound if the skill point does not exist.
func (s *PostgresSkillPointStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SkillPoint, error) {
	query := skillPointSelect + ` WHERE id = $1`

	point, err := scanSkillPoint(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrSkillPointNotFound
		}
		return nil, MapError(err)
	}
	return point, nil
}

// ListByDirection implements store.SkillPointStore.ListByDirection
func (s *PostgresSkillPointStore) ListByDirection(
	ctx context.Context,
	directionID uuid.UUID,
) ([]*domain.SkillPoint, error) {
	query := skillPointSelect + ` WHERE direction_id = $1 ORDER BY created_at, id`
	return s.queryPoints(ctx, query, directionID)
}

// ListStale implements store.SkillPointStore.ListStale
func (s *PostgresSkillPointStore) ListStale(
	ctx context.Context,
	cutoff time.Time,
) ([]*domain.SkillPoint, error) {
	query := skillPointSelect + `
		WHERE last_reviewed_at IS NULL OR last_reviewed_at < $1
		ORDER BY direction_id, created_at, id
	`
	return s.queryPoints(ctx, query, cutoff)
}

// Update implements store.SkillPointStore.Update
// Returns store.ErrSkillPointNotFound if the skill point does not exist.
func (s *PostgresSkillPointStore) Update(ctx context.Context, point *domain.SkillPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var lastReviewedAt sql.NullTime
	if point.LastReviewedAt != nil {
		lastReviewedAt = sql.NullTime{Time: *point.LastReviewedAt, Valid: true}
	}

	query := `
		UPDATE skill_points
		SET label = $2, summary = $3, level = $4, last_reviewed_at = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		point.ID,
		point.Label,
		point.Summary,
		int(point.Level),
		lastReviewedAt,
		point.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update skill point",
			slog.String("error", err.Error()),
			slog.String("skill_point_id", point.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "skill point"); err != nil {
		return store.ErrSkillPointNotFound
	}

	log.Debug("skill point updated",
		slog.String("skill_point_id", point.ID.String()),
		slog.String("level", point.Level.String()))
	return nil
}

// WithTx implements store.SkillPointStore.WithTx
func (s *PostgresSkillPointStore) WithTx(tx *sql.Tx) store.SkillPointStore {
	return &PostgresSkillPointStore{
		db:     tx,
		logger: s.logger,
	}
}

const skillPointSelect = `
	SELECT id, direction_id, label, summary, level, last_reviewed_at, created_at, updated_at
	FROM skill_points
`

func (s *PostgresSkillPointStore) queryPoints(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.SkillPoint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var points []*domain.SkillPoint
	for rows.Next() {
		point, err := scanSkillPoint(rows)
		if err != nil {
			return nil, MapError(err)
		}
		points = append(points, point)
	}
	return points, MapError(rows.Err())
}

func scanSkillPoint(row rowScanner) (*domain.SkillPoint, error) {
	var point domain.SkillPoint
	var level int
	var summary sql.NullString
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&point.ID,
		&point.DirectionID,
		&point.Label,
		&summary,
		&level,
		&lastReviewedAt,
		&point.CreatedAt,
		&point.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	point.Level = domain.ClampSkillLevel(level)
	if summary.Valid {
		point.Summary = summary.String
	}
	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		point.LastReviewedAt = &t
	}

	return &point, nil
}
