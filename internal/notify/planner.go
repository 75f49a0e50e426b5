package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/scheduler"
)

// Notification is one planned reminder: an instant and a short payload
// summary for the delivery collaborator.
type Notification struct {
	// At is the instant the reminder should fire.
	At time.Time `json:"at"`

	// Scope names which reminder class produced this notification.
	Scope domain.ReminderScope `json:"scope"`

	// DirectionID is set for per-direction review reminders and nil for
	// the daily summary.
	DirectionID uuid.UUID `json:"direction_id,omitempty"`

	// Summary is the human-readable payload.
	Summary string `json:"summary"`
}

// Planner computes notification instants from preferences and a plan.
// Implementations must be pure: identical input yields identical output.
type Planner interface {
	// Plan returns the notifications for the plan's day: one daily
	// summary at dailyTime, and one batched reminder per direction with
	// due cards at dueTime minus the lead. Disabled scopes suppress
	// their notifications entirely rather than emitting empty ones.
	Plan(prefs domain.ReminderPreferences, plan *scheduler.TodayPlan) []Notification
}

type rulePlanner struct{}

// NewPlanner creates a Planner.
func NewPlanner() Planner {
	return &rulePlanner{}
}

// Ensure rulePlanner implements Planner interface
var _ Planner = (*rulePlanner)(nil)

// Plan implements Planner.Plan
func (p *rulePlanner) Plan(
	prefs domain.ReminderPreferences,
	plan *scheduler.TodayPlan,
) []Notification {
	if plan == nil {
		return nil
	}

	var notifications []Notification
	day := plan.GeneratedAt

	if prefs.ScopeEnabled(domain.ReminderScopeToday) {
		notifications = append(notifications, Notification{
			At:      prefs.DailyTime.On(day),
			Scope:   domain.ReminderScopeToday,
			Summary: dailySummary(plan),
		})
	}

	if prefs.ScopeEnabled(domain.ReminderScopeReview) {
		at := prefs.DueTime.On(day).Add(-time.Duration(prefs.RemindLeadMinutes) * time.Minute)
		for _, count := range plan.Counts {
			if count.DueCards == 0 {
				continue
			}
			notifications = append(notifications, Notification{
				At:          at,
				Scope:       domain.ReminderScopeReview,
				DirectionID: count.DirectionID,
				Summary:     fmt.Sprintf("%d cards due for review", count.DueCards),
			})
		}
	}

	return notifications
}

func dailySummary(plan *scheduler.TodayPlan) string {
	return fmt.Sprintf("today: %d cards due, %d skill points to revisit across %d directions",
		len(plan.DueCards), len(plan.StaleSkillPoints), len(plan.Counts))
}
