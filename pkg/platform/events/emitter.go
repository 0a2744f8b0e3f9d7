package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultBufferSize = 256
	drainTimeout      = 5 * time.Second
)

// Recorder counts publish outcomes ("published", "failed", "dropped").
type Recorder interface {
	IncrementEventsPublished(outcome string)
}

// Emitter decouples request handling from event delivery. Emit never blocks:
// events go into a bounded inbox and Run hands them to the publisher. When the
// inbox is full the event is dropped and counted.
type Emitter struct {
	inbox     chan Event
	publisher Publisher
	logger    *slog.Logger
	recorder  Recorder
}

type EmitterOption func(*Emitter)

func WithLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func WithRecorder(r Recorder) EmitterOption {
	return func(e *Emitter) {
		e.recorder = r
	}
}

func WithBufferSize(n int) EmitterOption {
	return func(e *Emitter) {
		if n > 0 {
			e.inbox = make(chan Event, n)
		}
	}
}

// NewEmitter creates an emitter in front of publisher.
func NewEmitter(publisher Publisher, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		inbox:     make(chan Event, defaultBufferSize),
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit enqueues an event without blocking. It reports whether the event was
// accepted.
func (e *Emitter) Emit(ctx context.Context, ev Event) bool {
	select {
	case e.inbox <- ev:
		return true
	default:
		e.record("dropped")
		e.logger.WarnContext(ctx, "event inbox full, dropping event",
			"event_type", string(ev.Type),
			"event_id", ev.ID,
		)
		return false
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is left
// with a short grace period.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return nil
		case ev := <-e.inbox:
			e.publish(ctx, ev)
		}
	}
}

func (e *Emitter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-e.inbox:
			e.publish(ctx, ev)
		default:
			return
		}
	}
}

func (e *Emitter) publish(ctx context.Context, ev Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.record("failed")
		e.logger.WarnContext(ctx, "failed to publish event",
			"event_type", string(ev.Type),
			"event_id", ev.ID,
			"error", err,
		)
		return
	}
	e.record("published")
}

func (e *Emitter) record(outcome string) {
	if e.recorder != nil {
		e.recorder.IncrementEventsPublished(outcome)
	}
}
