package shared

import "context"

// EventHandler reacts to published events. An empty EventTypes result
// subscribes the handler to every event type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what the outbox processor delivers to
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus fans published events out to subscribed handlers between Start and Stop
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
