package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/store"
)

// PostgresDirectionStore implements the store.DirectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDirectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDirectionStore creates a new PostgreSQL implementation of the
// DirectionStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDirectionStore(db store.DBTX, logger *slog.Logger) *PostgresDirectionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDirectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "direction_store")),
	}
}

// Ensure PostgresDirectionStore implements store.DirectionStore interface
var _ store.DirectionStore = (*PostgresDirectionStore)(nil)

// Create implements store.DirectionStore.Create
func (s *PostgresDirectionStore) Create(ctx context.Context, direction *domain.Direction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := direction.Validate(); err != nil {
		log.Warn("direction validation failed during create",
			slog.String("error", err.Error()),
			slog.String("direction_id", direction.ID.String()))
		return err
	}

	query := `
		INSERT INTO directions (id, name, language, stage, quarterly_goal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		direction.ID,
		direction.Name,
		direction.Language,
		direction.Stage,
		direction.QuarterlyGoal,
		direction.CreatedAt,
		direction.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create direction",
			slog.String("error", err.Error()),
			slog.String("direction_id", direction.ID.String()))
		return MapError(err)
	}

	log.Info("direction created successfully",
		slog.String("direction_id", direction.ID.String()),
		slog.String("name", direction.Name))
	return nil
}

// GetByID implements store.DirectionStore.GetByID
// Returns store.ErrDirectionNotFound if the direction does not exist.
func (s *PostgresDirectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Direction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, language, stage, quarterly_goal, created_at, updated_at
		FROM directions
		WHERE id = $1
	`

	direction, err := s.scanDirection(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debug("direction not found", slog.String("direction_id", id.String()))
			return nil, store.ErrDirectionNotFound
		}
		log.Error("failed to get direction",
			slog.String("error", err.Error()),
			slog.String("direction_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadSkillPointIDs(ctx, direction); err != nil {
		return nil, err
	}

	return direction, nil
}

// GetWithSkillPoints implements store.DirectionStore.GetWithSkillPoints
// Returns store.ErrDirectionNotFound if the direction does not exist.
func (s *PostgresDirectionStore) GetWithSkillPoints(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Direction, []*domain.SkillPoint, error) {
	direction, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	points, err := NewPostgresSkillPointStore(s.db, s.logger).ListByDirection(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return direction, points, nil
}

// List implements store.DirectionStore.List
func (s *PostgresDirectionStore) List(ctx context.Context) ([]*domain.Direction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, language, stage, quarterly_goal, created_at, updated_at
		FROM directions
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list directions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var directions []*domain.Direction
	for rows.Next() {
		direction, err := s.scanDirection(rows)
		if err != nil {
			return nil, MapError(err)
		}
		directions = append(directions, direction)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	for _, direction := range directions {
		if err := s.loadSkillPointIDs(ctx, direction); err != nil {
			return nil, err
		}
	}

	return directions, nil
}

// UpdateStage implements store.DirectionStore.UpdateStage
// Returns store.ErrDirectionNotFound if the direction does not exist.
func (s *PostgresDirectionStore) UpdateStage(
	ctx context.Context,
	id uuid.UUID,
	stage domain.DirectionStage,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidStage(stage) {
		return domain.ErrInvalidStage
	}

	query := `
		UPDATE directions
		SET stage = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, stage, time.Now().UTC())
	if err != nil {
		log.Error("failed to update direction stage",
			slog.String("error", err.Error()),
			slog.String("direction_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "direction"); err != nil {
		return store.ErrDirectionNotFound
	}

	log.Debug("direction stage updated",
		slog.String("direction_id", id.String()),
		slog.String("stage", string(stage)))
	return nil
}

// Delete implements store.DirectionStore.Delete
// Skill points and cards are removed through ON DELETE CASCADE foreign keys.
// Returns store.ErrDirectionNotFound if the direction does not exist.
func (s *PostgresDirectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM directions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete direction",
			slog.String("error", err.Error()),
			slog.String("direction_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "direction"); err != nil {
		return store.ErrDirectionNotFound
	}

	log.Info("direction deleted", slog.String("direction_id", id.String()))
	return nil
}

// WithTx implements store.DirectionStore.WithTx
func (s *PostgresDirectionStore) WithTx(tx *sql.Tx) store.DirectionStore {
	return &PostgresDirectionStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresDirectionStore) scanDirection(row rowScanner) (*domain.Direction, error) {
	var direction domain.Direction
	var stage string
	var quarterlyGoal sql.NullString

	err := row.Scan(
		&direction.ID,
		&direction.Name,
		&direction.Language,
		&stage,
		&quarterlyGoal,
		&direction.CreatedAt,
		&direction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	direction.Stage = domain.DirectionStage(stage)
	if quarterlyGoal.Valid {
		direction.QuarterlyGoal = quarterlyGoal.String
	}

	return &direction, nil
}

// loadSkillPointIDs fills the ordered skill point ID list of a direction.
func (s *PostgresDirectionStore) loadSkillPointIDs(ctx context.Context, direction *domain.Direction) error {
	query := `
		SELECT id FROM skill_points
		WHERE direction_id = $1
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, direction.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	direction.SkillPointIDs = nil
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return MapError(err)
		}
		direction.SkillPointIDs = append(direction.SkillPointIDs, id)
	}
	return MapError(rows.Err())
}
