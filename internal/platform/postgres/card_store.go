package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend. Tags and evidence
// are stored as JSONB columns; the review state is inlined.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// CreateMultiple implements store.CardStore.CreateMultiple
// Run within a transaction so a failure leaves no partial card set behind.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO cards (id, direction_id, title, body, tags, confidence_score, evidence,
			created_at, due_at, interval_days, last_outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		tags, err := json.Marshal(card.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal card tags: %w", err)
		}
		evidence, err := json.Marshal(card.Evidence)
		if err != nil {
			return fmt.Errorf("failed to marshal card evidence: %w", err)
		}

		_, err = s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.DirectionID,
			card.Title,
			card.Body,
			tags,
			card.ConfidenceScore,
			evidence,
			card.CreatedAt,
			card.Review.DueAt,
			card.Review.IntervalDays,
			card.Review.LastOutcome,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				log.Warn("foreign key violation during card creation",
					slog.String("card_id", card.ID.String()),
					slog.String("direction_id", card.DirectionID.String()))
				return fmt.Errorf("%w: direction with ID %s not found",
					store.ErrInvalidEntity, card.DirectionID)
			}

			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return MapError(err)
		}
	}

	log.Info("cards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := cardSelect + ` WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}
	return card, nil
}

// ListByDirection implements store.CardStore.ListByDirection
func (s *PostgresCardStore) ListByDirection(
	ctx context.Context,
	directionID uuid.UUID,
) ([]*domain.Card, error) {
	query := cardSelect + ` WHERE direction_id = $1 ORDER BY created_at, id`
	return s.queryCards(ctx, query, directionID)
}

// ListDue implements store.CardStore.ListDue
// The ordering (due_at, direction_id, id) makes scheduler output deterministic.
func (s *PostgresCardStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	query := cardSelect + ` WHERE due_at <= $1 ORDER BY due_at, direction_id, id`
	return s.queryCards(ctx, query, now)
}

// UpdateReviewState implements store.CardStore.UpdateReviewState
// The WHERE clause on the baseline due time is the compare-and-set that
// rejects a second outcome racing an already-advanced review state.
// Returns store.ErrCardNotFound if the card does not exist.
// Returns store.ErrOutcomeConflict if the stored due time moved past the baseline.
func (s *PostgresCardStore) UpdateReviewState(
	ctx context.Context,
	id uuid.UUID,
	baselineDueAt time.Time,
	next domain.ReviewState,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET due_at = $3, interval_days = $4, last_outcome = $5
		WHERE id = $1 AND due_at = $2
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		id,
		baselineDueAt,
		next.DueAt,
		next.IntervalDays,
		next.LastOutcome,
	)
	if err != nil {
		log.Error("failed to update review state",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		// Distinguish a missing card from a moved baseline.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return store.ErrCardNotFound
		}
		log.Warn("review state conflict",
			slog.String("card_id", id.String()),
			slog.Time("baseline_due_at", baselineDueAt))
		return store.ErrOutcomeConflict
	}

	log.Debug("review state updated",
		slog.String("card_id", id.String()),
		slog.String("outcome", string(next.LastOutcome)),
		slog.Int("interval_days", next.IntervalDays))
	return nil
}

// Delete implements store.CardStore.Delete
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		return store.ErrCardNotFound
	}

	log.Info("card deleted", slog.String("card_id", id.String()))
	return nil
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

const cardSelect = `
	SELECT id, direction_id, title, body, tags, confidence_score, evidence,
		created_at, due_at, interval_days, last_outcome
	FROM cards
`

func (s *PostgresCardStore) queryCards(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	return cards, MapError(rows.Err())
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var tags, evidence []byte
	var lastOutcome string

	err := row.Scan(
		&card.ID,
		&card.DirectionID,
		&card.Title,
		&card.Body,
		&tags,
		&card.ConfidenceScore,
		&evidence,
		&card.CreatedAt,
		&card.Review.DueAt,
		&card.Review.IntervalDays,
		&lastOutcome,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &card.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card tags: %w", err)
		}
	}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &card.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card evidence: %w", err)
		}
	}
	card.Review.LastOutcome = domain.ReviewOutcome(lastOutcome)

	return &card, nil
}
