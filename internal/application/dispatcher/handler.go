package dispatcher

import (
	"context"

	"github.com/garyjia/visitor-kiosk/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// Publisher is the narrow side of the dispatcher used by event producers
type Publisher interface {
	Publish(ctx context.Context, evt *event.Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ctx context.Context, evt *event.Event)

// Publish calls f(ctx, evt)
func (f PublisherFunc) Publish(ctx context.Context, evt *event.Event) {
	f(ctx, evt)
}

// Discard is a Publisher that drops every event
var Discard Publisher = PublisherFunc(func(context.Context, *event.Event) {})

type subscription struct {
	name    string
	handler Handler
}
