package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/garyjia/media-collect/internal/domain/event"
)

// ErrClosed is returned when dispatching to a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans domain events out to subscribers. Services publish after
// their transaction commits; cache invalidation subscribes synchronously so
// the next read sees the change, notifications subscribe asynchronously.
type Dispatcher interface {
	Subscribe(eventType event.Type, handler Handler)
	SubscribeNamed(eventType event.Type, name string, handler Handler)
	SubscribeAsync(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes every handler with the given name and reports whether any existed
	Unsubscribe(eventType event.Type, name string) bool

	// Dispatch runs sync handlers in order and returns the first error.
	// Async handlers are started only after every sync handler succeeded.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler for the event in the background
	DispatchAsync(ctx context.Context, evt *event.Event)

	ListHandlers(eventType event.Type) []HandlerInfo

	// Close rejects further events and waits for running async handlers
	Close() error
}

// Logger is the logging surface the dispatcher needs
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	// slots bounds concurrently running async handlers; nil means unbounded
	slots chan struct{}

	// lifecycle orders wg.Add against Close; closed is only read or written under it
	lifecycle sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithAsyncLimit caps how many async handlers run at once. Extra handlers
// wait for a free slot. n <= 0 removes the cap.
func WithAsyncLimit(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		} else {
			d.slots = nil
		}
	}
}

// NewDispatcher creates an in-process dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("%s#%d", eventType, len(d.handlers[eventType]))
	d.mu.RUnlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.register(HandlerInfo{Name: name, EventType: eventType, Mode: ModeSync, Handler: handler})
}

func (d *eventDispatcher) SubscribeAsync(eventType event.Type, name string, handler Handler) {
	d.register(HandlerInfo{Name: name, EventType: eventType, Mode: ModeAsync, Handler: handler})
}

func (d *eventDispatcher) register(info HandlerInfo) {
	d.mu.Lock()
	d.handlers[info.EventType] = append(d.handlers[info.EventType], info)
	d.mu.Unlock()

	d.logger.Info("Handler registered", "event_type", info.EventType, "handler_name", info.Name, "mode", info.Mode.String())
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) bool {
	d.mu.Lock()
	before := len(d.handlers[eventType])
	d.handlers[eventType] = slices.DeleteFunc(d.handlers[eventType], func(h HandlerInfo) bool {
		return h.Name == name
	})
	removed := len(d.handlers[eventType]) < before
	d.mu.Unlock()

	if removed {
		d.logger.Info("Handler unregistered", "event_type", eventType, "handler_name", name)
	}
	return removed
}

// subscribers copies the handler list so dispatch runs without holding the lock
func (d *eventDispatcher) subscribers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.handlers[eventType])
}

func (d *eventDispatcher) isClosed() bool {
	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()
	return d.closed
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.isClosed() {
		return ErrClosed
	}

	handlers := d.subscribers(evt.Type)
	d.logger.Info("Dispatching event", "event_type", evt.Type, "event_id", evt.ID,
		"aggregate_id", evt.AggregateID, "handler_count", len(handlers))

	for _, info := range handlers {
		if info.Mode != ModeSync {
			continue
		}
		if err := d.invoke(ctx, evt, info); err != nil {
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	for _, info := range handlers {
		if info.Mode == ModeAsync {
			d.spawn(ctx, evt, info)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.isClosed() {
		d.logger.Error("Dropped event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}

	for _, info := range d.subscribers(evt.Type) {
		d.spawn(ctx, evt, info)
	}
}

// spawn runs one handler in the background. The handler keeps the request's
// values but not its cancellation; the response is usually already sent.
// Handlers reaching spawn after Close has begun are dropped.
func (d *eventDispatcher) spawn(ctx context.Context, evt *event.Event, info HandlerInfo) {
	detached := context.WithoutCancel(ctx)

	d.lifecycle.RLock()
	if d.closed {
		d.lifecycle.RUnlock()
		d.logger.Error("Dropped event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID,
			"handler_name", info.Name)
		return
	}
	d.wg.Add(1)
	d.lifecycle.RUnlock()

	go func() {
		defer d.wg.Done()
		if d.slots != nil {
			d.slots <- struct{}{}
			defer func() { <-d.slots }()
		}
		_ = d.invoke(detached, evt, info)
	}()
}

// invoke runs a handler, converting a panic into an error. Failures are logged here.
func (d *eventDispatcher) invoke(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			d.logger.Error("Event handler failed", "event_type", evt.Type, "event_id", evt.ID,
				"handler_name", info.Name, "mode", info.Mode.String(), "error", err)
		}
	}()
	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.subscribers(eventType)
	for i := range handlers {
		handlers[i].Handler = nil
	}
	return handlers
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	if d.closed {
		d.lifecycle.Unlock()
		return fmt.Errorf("%w: already closed", ErrClosed)
	}
	d.closed = true
	d.lifecycle.Unlock()

	d.logger.Info("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}
