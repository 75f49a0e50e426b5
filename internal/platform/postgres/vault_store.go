package postgres

import (
	"context"
	"log/slog"

	"github.com/cklxx/knowflow/internal/store"
)

// PostgresVaultSummaryStore implements the store.VaultSummaryStore interface
// by counting rows across the vault tables in a single statement.
type PostgresVaultSummaryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVaultSummaryStore creates a new PostgreSQL implementation of the
// VaultSummaryStore interface. If logger is nil, a default logger will be used.
func NewPostgresVaultSummaryStore(db store.DBTX, logger *slog.Logger) *PostgresVaultSummaryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVaultSummaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "vault_summary_store")),
	}
}

// Ensure PostgresVaultSummaryStore implements store.VaultSummaryStore interface
var _ store.VaultSummaryStore = (*PostgresVaultSummaryStore)(nil)

// Summary implements store.VaultSummaryStore.Summary
// Evidence and tag counts come from the JSONB arrays on cards; storage size
// is the total on-disk size of the vault tables as reported by postgres.
func (s *PostgresVaultSummaryStore) Summary(ctx context.Context) (*store.VaultSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM directions),
			(SELECT COUNT(*) FROM skill_points),
			(SELECT COUNT(*) FROM cards),
			(SELECT COALESCE(SUM(jsonb_array_length(evidence)), 0) FROM cards),
			(SELECT COUNT(DISTINCT tag) FROM cards, jsonb_array_elements_text(tags) AS tag),
			(SELECT COALESCE(SUM(pg_total_relation_size(t::regclass)), 0)
				FROM unnest(ARRAY['directions', 'skill_points', 'cards', 'reminder_preferences']) AS t)
	`

	var summary store.VaultSummary
	err := s.db.QueryRowContext(ctx, query).Scan(
		&summary.Directions,
		&summary.SkillPoints,
		&summary.Cards,
		&summary.Evidence,
		&summary.Tags,
		&summary.StorageSize,
	)
	if err != nil {
		return nil, MapError(err)
	}

	return &summary, nil
}
