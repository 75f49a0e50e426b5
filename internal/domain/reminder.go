package domain

import (
	"errors"
	"fmt"
	"time"
)

// ReminderScope names one class of reminder a user can enable.
type ReminderScope string

// Possible reminder scopes: the daily plan summary and per-due-item
// review reminders.
const (
	ReminderScopeToday  ReminderScope = "today"
	ReminderScopeReview ReminderScope = "review"
)

// Reminder-specific validation errors
var (
	// ErrInvalidReminderScope is returned when a reminder scope is not recognized.
	ErrInvalidReminderScope = errors.New("invalid reminder scope")

	// ErrInvalidReminderTime is returned when a time-of-day string is malformed.
	ErrInvalidReminderTime = errors.New("invalid reminder time, expected HH:MM")

	// ErrNegativeLeadMinutes is returned when the reminder lead is negative.
	ErrNegativeLeadMinutes = errors.New("remind lead minutes cannot be negative")
)

// IsValidReminderScope checks if the given scope is a valid ReminderScope.
func IsValidReminderScope(scope ReminderScope) bool {
	switch scope {
	case ReminderScopeToday, ReminderScopeReview:
		return true
	default:
		return false
	}
}

// TimeOfDay is a wall-clock time without a date, as configured for
// reminders ("20:30").
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses an "HH:MM" string into a TimeOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidReminderTime, value)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// String renders the time back as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the time-of-day to the date of the given instant, in that
// instant's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// ReminderPreferences holds the user's reminder configuration. One
// instance exists per user; it is loaded at startup and persisted on
// save, and is passed explicitly to the notification planner rather
// than living as ambient global state.
type ReminderPreferences struct {
	DailyTime         TimeOfDay       `json:"daily_time"`
	DueTime           TimeOfDay       `json:"due_time"`
	RemindLeadMinutes int             `json:"remind_lead_minutes"`
	EnabledScopes     []ReminderScope `json:"enabled_scopes"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DefaultReminderPreferences returns the preferences a fresh install
// starts with: both scopes enabled, summary in the evening, due
// reminders shortly before dinner time.
func DefaultReminderPreferences() ReminderPreferences {
	return ReminderPreferences{
		DailyTime:         TimeOfDay{Hour: 20, Minute: 30},
		DueTime:           TimeOfDay{Hour: 18, Minute: 45},
		RemindLeadMinutes: 45,
		EnabledScopes:     []ReminderScope{ReminderScopeToday, ReminderScopeReview},
		UpdatedAt:         time.Now().UTC(),
	}
}

// Validate checks if the ReminderPreferences has valid data.
// Returns an error if any field fails validation.
func (p *ReminderPreferences) Validate() error {
	if p.RemindLeadMinutes < 0 {
		return ErrNegativeLeadMinutes
	}

	for _, scope := range p.EnabledScopes {
		if !IsValidReminderScope(scope) {
			return fmt.Errorf("%w: %q", ErrInvalidReminderScope, scope)
		}
	}

	return nil
}

// ScopeEnabled reports whether the given scope is enabled.
func (p *ReminderPreferences) ScopeEnabled(scope ReminderScope) bool {
	for _, enabled := range p.EnabledScopes {
		if enabled == scope {
			return true
		}
	}
	return false
}
