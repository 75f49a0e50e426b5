package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/store"
)

// PreferencesService loads and saves the installation's reminder
// preferences, falling back to configured defaults until the user has
// saved their own.
type PreferencesService struct {
	store    store.PreferencesStore
	defaults domain.ReminderPreferences
	logger   *slog.Logger
}

// NewPreferencesService creates a PreferencesService.
// It panics if the store is nil.
func NewPreferencesService(
	prefStore store.PreferencesStore,
	defaults domain.ReminderPreferences,
	logger *slog.Logger,
) *PreferencesService {
	if prefStore == nil {
		panic("preferences store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PreferencesService{
		store:    prefStore,
		defaults: defaults,
		logger:   logger.With(slog.String("component", "preferences_service")),
	}
}

// Load returns the saved preferences, or the defaults when none have
// been saved yet.
func (s *PreferencesService) Load(ctx context.Context) (*domain.ReminderPreferences, error) {
	prefs, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrPreferencesNotFound) {
			s.logger.Debug("no saved reminder preferences, using defaults")
			defaults := s.defaults
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to load reminder preferences: %w", err)
	}
	return prefs, nil
}

// Update validates and persists new preferences.
func (s *PreferencesService) Update(ctx context.Context, prefs *domain.ReminderPreferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.store.Save(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save reminder preferences: %w", err)
	}

	s.logger.Info("reminder preferences updated",
		slog.String("daily_time", prefs.DailyTime.String()),
		slog.String("due_time", prefs.DueTime.String()),
		slog.Int("remind_lead_minutes", prefs.RemindLeadMinutes))
	return nil
}
