// Package notify defines the outbound alert hook. The host decides where
// alerts land; this package ships a slog sink and a Kafka sink.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Alert is a real-time security notification flowing out of the subsystem.
type Alert struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Channel   string            `json:"channel"`
	Severity  string            `json:"severity"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Subject   string            `json:"subject,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Notifier delivers alerts. Implementations must not block the caller beyond
// a short, bounded time; delivery failures are the implementation's problem
// to log, never the caller's to handle.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log; the default sink when no
// external channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier wraps a logger as a Notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	n.logger.WarnContext(ctx, "security alert",
		"alert_id", alert.ID,
		"channel", alert.Channel,
		"severity", alert.Severity,
		"title", alert.Title,
		"subject", alert.Subject,
	)
	return nil
}

// Multi fans an alert out to several notifiers, keeping going past failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
