// Package events provides the in-process pub/sub plumbing modules use
// to react to each other without importing each other. It carries no
// business logic; domain event types live with the modules that publish
// them.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events. Embed it and add
// the payload.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes and subscribes domain events.
type Bus interface {
	// Publish fans an event out to its subscribers. Handlers run
	// asynchronously; publish never blocks the caller on them.
	Publish(ctx context.Context, event Event)

	// PublishSync fans out and waits for every handler, returning the
	// first handler error. Use when the caller must observe the
	// side effects, like the verified re-classification.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the name an event reports via
	// EventName().
	Subscribe(eventName string, handler Handler)
}
