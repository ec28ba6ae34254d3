package service

import (
	"context"

	"github.com/garyjia/media-collect/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher is the slice of the dispatcher services depend on
type EventPublisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// publish dispatches after the write has committed. A failing handler is
// logged but does not fail the operation.
func publish(ctx context.Context, pub EventPublisher, logger Logger, evt *event.Event) {
	if pub == nil {
		return
	}
	if err := pub.Dispatch(ctx, evt); err != nil {
		logger.Warn("Event handlers failed",
			"event_type", evt.Type,
			"aggregate_id", evt.AggregateID,
			"error", err,
		)
	}
}
