package event

import (
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The outbox processor cannot decode entries of unregistered types.
func RegisterAllEvents(serializer *EventSerializer) {
	// Booking lifecycle
	serializer.Register(booking.EventTypeBookingCreated, &booking.BookingCreatedEvent{})
	serializer.Register(booking.EventTypeBookingStatusChanged, &booking.BookingStatusChangedEvent{})
	serializer.Register(booking.EventTypeBookingQuantityChanged, &booking.BookingQuantityChangedEvent{})
	serializer.Register(booking.EventTypeBookingDeleted, &booking.BookingDeletedEvent{})

	// Ledger
	serializer.Register(inventory.EventTypeStockAdded, &inventory.StockAddedEvent{})
	serializer.Register(inventory.EventTypeStockReduced, &inventory.StockReducedEvent{})
	serializer.Register(inventory.EventTypeLowStock, &inventory.LowStockEvent{})
	serializer.Register(inventory.EventTypeStockRestorationFailed, &inventory.StockRestorationFailedEvent{})

	// Catalog
	serializer.Register(catalog.EventTypeProductRegistered, &catalog.ProductRegisteredEvent{})
	serializer.Register(catalog.EventTypeVariantUpdated, &catalog.VariantUpdatedEvent{})

	// Accounts
	serializer.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
}

// NewDefaultSerializer returns a serializer with every domain event registered
func NewDefaultSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	return s
}
