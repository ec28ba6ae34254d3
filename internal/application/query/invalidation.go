package query

import (
	"context"

	"github.com/garyjia/media-collect/internal/application/dispatcher"
	"github.com/garyjia/media-collect/internal/domain/event"
)

// invalidations lists the key prefixes each event makes stale
var invalidations = map[event.Type][]string{
	event.TypeTaskCreated:         {KeyTasks, KeyCollectors},
	event.TypeTaskUpdated:         {KeyTasks, KeyCollectors, KeySubmissions},
	event.TypeTaskAssigned:        {KeyTasks, KeyCollectors},
	event.TypeCollectorRegistered: {KeyCollectors, KeySubmissions},
	event.TypeSubmissionReviewed:  {KeySubmissions, KeyTasks, KeyCollectors},
	event.TypeUserRegistered:      {KeyUsers, KeyCollectors},
}

// PrefixesFor returns the key prefixes invalidated by an event type
func PrefixesFor(t event.Type) []string {
	return invalidations[t]
}

// InvalidationHandler drops stale cache entries for the event. It never
// fails: cache problems are logged by the loader.
func (l *Loader) InvalidationHandler() dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		l.Invalidate(ctx, PrefixesFor(evt.Type)...)
		return nil
	}
}

// Subscribe registers the invalidation handler for every event that
// changes cached data
func (l *Loader) Subscribe(d dispatcher.Dispatcher) {
	for t := range invalidations {
		d.SubscribeNamed(t, "cache-invalidate", l.InvalidationHandler())
	}
}
