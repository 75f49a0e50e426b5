package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves multiple cards to the store. This is the
	// saveCards operation behind import commits.
	// IMPORTANT: This method MUST be run within a transaction for
	// atomicity; use WithTx together with store.RunInTransaction so a
	// failure leaves no partial card set behind.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDirection retrieves all cards of a direction, ordered by
	// creation time.
	ListByDirection(ctx context.Context, directionID uuid.UUID) ([]*domain.Card, error)

	// ListDue retrieves all cards due at or before the given instant,
	// across all directions, ordered by (due time, direction ID, card
	// ID) so the scheduler output is deterministic.
	ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error)

	// UpdateReviewState replaces a card's review state, but only while
	// the stored due time still equals the caller's baseline. This is
	// the applyOutcome compare-and-set: a second outcome racing on the
	// same baseline loses.
	// Returns ErrCardNotFound if the card does not exist.
	// Returns ErrOutcomeConflict if the stored due time has already
	// moved past the baseline.
	UpdateReviewState(ctx context.Context, id uuid.UUID, baselineDueAt time.Time, next domain.ReviewState) error

	// Delete removes a card from the store by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CardStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) CardStore
}

// PreferencesStore defines the interface for reminder preference persistence.
// One row exists per installation; Get before any Save returns
// ErrPreferencesNotFound and callers fall back to configured defaults.
type PreferencesStore interface {
	// Get retrieves the saved reminder preferences.
	// Returns ErrPreferencesNotFound if none have been saved yet.
	Get(ctx context.Context) (*domain.ReminderPreferences, error)

	// Save persists the reminder preferences, replacing any saved set.
	// Returns validation errors if the preferences are invalid.
	Save(ctx context.Context, prefs *domain.ReminderPreferences) error
}

// VaultSummary is the read side of the vault statistics collaborator.
// The core consumes these counts to size today-plan previews; it never
// computes them itself.
type VaultSummary struct {
	Directions  int   `json:"directions"`
	SkillPoints int   `json:"skill_points"`
	Cards       int   `json:"cards"`
	Evidence    int   `json:"evidence"`
	Tags        int   `json:"tags"`
	StorageSize int64 `json:"storage_size"`
}

// VaultSummaryStore defines the interface for reading vault statistics.
type VaultSummaryStore interface {
	// Summary returns entity counts and storage size for the vault.
	Summary(ctx context.Context) (*VaultSummary, error)
}
