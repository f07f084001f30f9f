package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, event Event) error {
	l.logger.InfoContext(ctx, "onboarding event",
		"event_type", event.Type,
		"event_id", event.ID.String(),
		"session_id", event.SessionID.String(),
		"from", event.From,
		"to", event.To,
		"version", event.Version,
	)
	return nil
}

var _ Publisher = (*LogPublisher)(nil)
