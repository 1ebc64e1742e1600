package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeBooking is the aggregate type for booking events
const AggregateTypeBooking = "Booking"

// Event type constants
const (
	EventTypeBookingCreated         = "BookingCreated"
	EventTypeBookingStatusChanged   = "BookingStatusChanged"
	EventTypeBookingQuantityChanged = "BookingQuantityChanged"
	EventTypeBookingDeleted         = "BookingDeleted"
)

// BookingCreatedEvent is raised when a booking is created
type BookingCreatedEvent struct {
	shared.BaseDomainEvent
	BookingID     uuid.UUID       `json:"booking_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	VariantID     uuid.UUID       `json:"variant_id"`
	Quantity      int64           `json:"quantity"`
	PriceType     PriceType       `json:"price_type"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PreferredDate time.Time       `json:"preferred_date"`
	PreferredTime string          `json:"preferred_time"`
}

// NewBookingCreatedEvent creates a new BookingCreatedEvent
func NewBookingCreatedEvent(b *Booking) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingCreated, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		VariantID:       b.VariantID,
		Quantity:        b.Quantity,
		PriceType:       b.PriceType,
		UnitPrice:       b.UnitPrice,
		PreferredDate:   b.PreferredDate,
		PreferredTime:   b.PreferredTime,
	}
}

// EventType returns the event type name
func (e *BookingCreatedEvent) EventType() string {
	return EventTypeBookingCreated
}

// BookingStatusChangedEvent is raised on every status transition
type BookingStatusChangedEvent struct {
	shared.BaseDomainEvent
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	Quantity   int64     `json:"quantity"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
}

// NewBookingStatusChangedEvent creates a new BookingStatusChangedEvent
func NewBookingStatusChangedEvent(b *Booking, from Status) *BookingStatusChangedEvent {
	return &BookingStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingStatusChanged, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		CustomerID:      b.CustomerID,
		VariantID:       b.VariantID,
		Quantity:        b.Quantity,
		From:            from,
		To:              b.Status,
	}
}

// EventType returns the event type name
func (e *BookingStatusChangedEvent) EventType() string {
	return EventTypeBookingStatusChanged
}

// BookingQuantityChangedEvent is raised when the booked quantity changes
type BookingQuantityChangedEvent struct {
	shared.BaseDomainEvent
	BookingID   uuid.UUID `json:"booking_id"`
	VariantID   uuid.UUID `json:"variant_id"`
	OldQuantity int64     `json:"old_quantity"`
	NewQuantity int64     `json:"new_quantity"`
}

// NewBookingQuantityChangedEvent creates a new BookingQuantityChangedEvent
func NewBookingQuantityChangedEvent(b *Booking, oldQuantity int64) *BookingQuantityChangedEvent {
	return &BookingQuantityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingQuantityChanged, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		VariantID:       b.VariantID,
		OldQuantity:     oldQuantity,
		NewQuantity:     b.Quantity,
	}
}

// EventType returns the event type name
func (e *BookingQuantityChangedEvent) EventType() string {
	return EventTypeBookingQuantityChanged
}

// BookingDeletedEvent is raised when a booking is removed
type BookingDeletedEvent struct {
	shared.BaseDomainEvent
	BookingID     uuid.UUID `json:"booking_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	Status        Status    `json:"status"`
	Quantity      int64     `json:"quantity"`
	StockRestored bool      `json:"stock_restored"`
}

// NewBookingDeletedEvent creates a new BookingDeletedEvent
func NewBookingDeletedEvent(b *Booking) *BookingDeletedEvent {
	return &BookingDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingDeleted, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		VariantID:       b.VariantID,
		Status:          b.Status,
		Quantity:        b.Quantity,
		StockRestored:   !b.StockDeducted,
	}
}

// EventType returns the event type name
func (e *BookingDeletedEvent) EventType() string {
	return EventTypeBookingDeleted
}
