package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/platform/logger"
	"github.com/cklxx/knowflow/internal/store"
)

// PostgresPreferencesStore implements the store.PreferencesStore interface
// using a PostgreSQL database. Exactly one preferences row exists per
// installation; Save upserts it in place.
type PostgresPreferencesStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPreferencesStore creates a new PostgreSQL implementation of the
// PreferencesStore interface. If logger is nil, a default logger will be used.
func NewPostgresPreferencesStore(db store.DBTX, logger *slog.Logger) *PostgresPreferencesStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPreferencesStore{
		db:     db,
		logger: logger.With(slog.String("component", "preferences_store")),
	}
}

// Ensure PostgresPreferencesStore implements store.PreferencesStore interface
var _ store.PreferencesStore = (*PostgresPreferencesStore)(nil)

// Get implements store.PreferencesStore.Get
// Returns store.ErrPreferencesNotFound if no preferences have been saved yet.
func (s *PostgresPreferencesStore) Get(ctx context.Context) (*domain.ReminderPreferences, error) {
	query := `
		SELECT daily_time, due_time, remind_lead_minutes, enabled_scopes, updated_at
		FROM reminder_preferences
		WHERE id = 1
	`

	var prefs domain.ReminderPreferences
	var dailyTime, dueTime string
	var scopes []byte

	err := s.db.QueryRowContext(ctx, query).Scan(
		&dailyTime,
		&dueTime,
		&prefs.RemindLeadMinutes,
		&scopes,
		&prefs.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrPreferencesNotFound
		}
		return nil, MapError(err)
	}

	if prefs.DailyTime, err = domain.ParseTimeOfDay(dailyTime); err != nil {
		return nil, fmt.Errorf("invalid stored daily time: %w", err)
	}
	if prefs.DueTime, err = domain.ParseTimeOfDay(dueTime); err != nil {
		return nil, fmt.Errorf("invalid stored due time: %w", err)
	}
	if len(scopes) > 0 {
		if err := json.Unmarshal(scopes, &prefs.EnabledScopes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal enabled scopes: %w", err)
		}
	}

	return &prefs, nil
}

// Save implements store.PreferencesStore.Save
func (s *PostgresPreferencesStore) Save(ctx context.Context, prefs *domain.ReminderPreferences) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	scopes, err := json.Marshal(prefs.EnabledScopes)
	if err != nil {
		return fmt.Errorf("failed to marshal enabled scopes: %w", err)
	}

	query := `
		INSERT INTO reminder_preferences (id, daily_time, due_time, remind_lead_minutes, enabled_scopes, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET daily_time = $1, due_time = $2, remind_lead_minutes = $3, enabled_scopes = $4, updated_at = $5
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		prefs.DailyTime.String(),
		prefs.DueTime.String(),
		prefs.RemindLeadMinutes,
		scopes,
		prefs.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save reminder preferences", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Info("reminder preferences saved",
		slog.String("daily_time", prefs.DailyTime.String()),
		slog.String("due_time", prefs.DueTime.String()))
	return nil
}
