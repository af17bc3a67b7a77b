// Package notify defines the notification surface the core reports state
// transitions to, plus an slog-backed implementation.
package notify

import (
	"context"
	"log/slog"
)

// Severity flags how a notification should be presented.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a short title/description pair with a severity flag.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

// Notifier is the surface the core calls to report each state transition:
// settings saved, integration connected or failed, message reported, errors.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier renders notifications to the structured log. It stands in for
// a real UI notification surface.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates an slog-backed Notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// Notify logs the notification at a level matching its severity.
func (n *LogNotifier) Notify(ctx context.Context, notification Notification) {
	switch notification.Severity {
	case SeverityError:
		n.logger.ErrorContext(ctx, notification.Title, "description", notification.Description)
	case SeverityWarning:
		n.logger.WarnContext(ctx, notification.Title, "description", notification.Description)
	default:
		n.logger.InfoContext(ctx, notification.Title, "description", notification.Description)
	}
}
