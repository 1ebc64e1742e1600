package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/servicebook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultExchange is the topic exchange domain events are relayed to
const DefaultExchange = "servicebook.events"

// Broker publishes one message and waits for the broker to confirm it
type Broker interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
	Close() error
}

// AMQPBroker is a Broker on a RabbitMQ connection with publisher confirms.
// A closed channel is reopened on the next publish.
type AMQPBroker struct {
	url      string
	exchange string
	logger   *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects and declares the durable topic exchange
func DialAMQP(url, exchange string, logger *zap.Logger) (*AMQPBroker, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &AMQPBroker{url: url, exchange: exchange, logger: logger}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *AMQPBroker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("enable publisher confirms: %w", err)
	}
	b.conn, b.ch = conn, ch
	return nil
}

// Publish sends a persistent message and blocks until it is confirmed
func (b *AMQPBroker) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil || b.ch.IsClosed() {
		b.logger.Warn("amqp channel closed, reconnecting")
		_ = b.closeLocked()
		if err := b.connect(); err != nil {
			return err
		}
	}

	confirm, err := b.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, true, false, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm for %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected %s", routingKey)
	}
	return nil
}

// Close closes the channel and connection
func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

func (b *AMQPBroker) closeLocked() error {
	var err error
	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil && !b.conn.IsClosed() {
		err = b.conn.Close()
	}
	b.conn = nil
	return err
}

// AMQPRelay forwards every domain event to the broker with the event type as
// routing key. Wrap it in an IdempotentHandler so outbox retries do not
// republish events that already went out.
type AMQPRelay struct {
	broker     Broker
	exchange   string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAMQPRelay creates a relay
func NewAMQPRelay(broker Broker, exchange string, serializer *EventSerializer, logger *zap.Logger) *AMQPRelay {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPRelay{broker: broker, exchange: exchange, serializer: serializer, logger: logger}
}

// Name is the idempotency namespace of the relay
func (r *AMQPRelay) Name() string { return "amqp-relay" }

// EventTypes returns nil: the relay receives every event
func (r *AMQPRelay) EventTypes() []string { return nil }

// Handle publishes the event
func (r *AMQPRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	body, err := r.serializer.Serialize(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID().String(),
		Type:         event.EventType(),
		Timestamp:    event.OccurredAt().UTC().Truncate(time.Second),
		AppId:        "servicebook",
		Headers: amqp.Table{
			"aggregate_type": event.AggregateType(),
			"aggregate_id":   event.AggregateID().String(),
		},
		Body: body,
	}
	if err := r.broker.Publish(ctx, r.exchange, event.EventType(), msg); err != nil {
		return err
	}

	r.logger.Debug("event relayed",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
	)
	return nil
}

var (
	_ Broker              = (*AMQPBroker)(nil)
	_ shared.EventHandler = (*AMQPRelay)(nil)
)
