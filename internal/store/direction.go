package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
)

// DirectionStore defines the interface for direction data persistence.
type DirectionStore interface {
	// Create saves a new direction to the store.
	// Returns validation errors if the direction data is invalid.
	Create(ctx context.Context, direction *domain.Direction) error

	// GetByID retrieves a direction by its unique ID, including the
	// ordered IDs of its skill points.
	// Returns ErrDirectionNotFound if the direction does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Direction, error)

	// GetWithSkillPoints retrieves a direction together with its skill
	// points, ordered by creation. This is the loadDirection operation
	// the scheduling core depends on.
	// Returns ErrDirectionNotFound if the direction does not exist.
	GetWithSkillPoints(ctx context.Context, id uuid.UUID) (*domain.Direction, []*domain.SkillPoint, error)

	// List retrieves all directions ordered by creation time.
	List(ctx context.Context) ([]*domain.Direction, error)

	// UpdateStage replaces the cached derived stage of a direction.
	// Returns ErrDirectionNotFound if the direction does not exist.
	UpdateStage(ctx context.Context, id uuid.UUID, stage domain.DirectionStage) error

	// Delete removes a direction. Skill points and cards under it are
	// removed with it through ON DELETE CASCADE foreign keys; the
	// application code never deletes them piecemeal.
	// Returns ErrDirectionNotFound if the direction does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new DirectionStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) DirectionStore
}

// SkillPointStore defines the interface for skill point data persistence.
type SkillPointStore interface {
	// CreateMultiple saves multiple skill points to the store.
	// This method MUST be run within a transaction for atomicity; use
	// WithTx together with store.RunInTransaction.
	CreateMultiple(ctx context.Context, points []*domain.SkillPoint) error

	// GetByID retrieves a skill point by its unique ID.
	// Returns ErrSkillPointNotFound if the skill point does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SkillPoint, error)

	// ListByDirection retrieves all skill points of a direction,
	// ordered by creation time.
	ListByDirection(ctx context.Context, directionID uuid.UUID) ([]*domain.SkillPoint, error)

	// ListStale retrieves skill points whose last review is older than
	// the given cutoff or missing entirely, across all directions.
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.SkillPoint, error)

	// Update saves changes to an existing skill point's level, summary,
	// and review timestamp.
	// Returns ErrSkillPointNotFound if the skill point does not exist.
	Update(ctx context.Context, point *domain.SkillPoint) error

	// WithTx returns a new SkillPointStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SkillPointStore
}
