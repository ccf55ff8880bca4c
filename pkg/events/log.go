package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used in development and
// when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	p.logger.InfoContext(ctx, "event",
		"type", ev.Type,
		"aggregate_id", ev.AggregateID,
		"actor_id", ev.ActorID,
		"data", ev.Data,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
