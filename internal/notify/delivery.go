package notify

import (
	"context"
	"log/slog"
)

// Delivery schedules one notification with whatever delivery channel
// the process is wired to. The planner only computes instants and
// payload summaries; delivery latency or failure never blocks planning.
type Delivery interface {
	Schedule(ctx context.Context, notification Notification) error
}

// LogDelivery writes planned notifications to the structured log. It is
// the default channel for headless deployments without a push provider.
type LogDelivery struct {
	logger *slog.Logger
}

// NewLogDelivery creates a log-backed delivery channel.
func NewLogDelivery(logger *slog.Logger) *LogDelivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDelivery{logger: logger.With(slog.String("component", "log_delivery"))}
}

// Ensure LogDelivery implements Delivery interface
var _ Delivery = (*LogDelivery)(nil)

// Schedule implements Delivery.Schedule
func (d *LogDelivery) Schedule(ctx context.Context, notification Notification) error {
	d.logger.InfoContext(ctx, "notification scheduled",
		slog.Time("at", notification.At),
		slog.String("scope", string(notification.Scope)),
		slog.String("summary", notification.Summary))
	return nil
}
