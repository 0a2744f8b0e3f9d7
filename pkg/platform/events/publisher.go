package events

import (
	"context"
	"log/slog"
)

// Publisher delivers a single event to its sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// LogPublisher writes events to a structured logger. It is the sink when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "domain event",
		"log_type", "event",
		"event_id", e.ID,
		"event_type", string(e.Type),
		"actor_id", e.ActorID,
		"subject_id", e.SubjectID,
		"request_id", e.RequestID,
		"attributes", e.Attributes,
	)
	return nil
}
