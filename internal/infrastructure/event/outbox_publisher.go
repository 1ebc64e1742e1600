package event

import (
	"context"
	"fmt"

	"github.com/servicebook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events to the outbox inside the caller's
// transaction, so events commit or roll back with the state they describe.
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// WithMaxRetries sets the delivery attempts allowed before an entry goes to
// the dead letter state. Non-positive values keep the default.
func (p *OutboxPublisher) WithMaxRetries(n int) *OutboxPublisher {
	p.maxRetries = n
	return p
}

// PublishWithTx publishes events to the outbox within the provided transaction
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		if !p.serializer.IsRegistered(event.EventType()) {
			return fmt.Errorf("event type %s is not registered for outbox delivery", event.EventType())
		}
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entry := shared.NewOutboxEntry(event, payload)
		if p.maxRetries > 0 {
			entry.MaxRetries = p.maxRetries
		}
		entries = append(entries, entry)
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}
