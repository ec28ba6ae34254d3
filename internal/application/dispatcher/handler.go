package dispatcher

import (
	"context"

	"github.com/garyjia/media-collect/internal/domain/event"
)

// Handler reacts to one domain event
type Handler func(ctx context.Context, evt *event.Event) error

// Mode selects how Dispatch runs a handler
type Mode int

const (
	// ModeSync handlers run in subscription order before Dispatch returns
	ModeSync Mode = iota
	// ModeAsync handlers run in their own goroutine, detached from request cancellation
	ModeAsync
)

func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// HandlerInfo describes a subscription. ListHandlers returns it with Handler cleared.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Mode      Mode
	Handler   Handler
}
