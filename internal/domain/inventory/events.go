package inventory

import (
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
)

// AggregateTypeStock is the aggregate type used by ledger events
const AggregateTypeStock = "Stock"

// Event type constants
const (
	EventTypeStockAdded             = "StockAdded"
	EventTypeStockReduced           = "StockReduced"
	EventTypeLowStock               = "LowStock"
	EventTypeStockRestorationFailed = "StockRestorationFailed"
)

// StockAddedEvent is raised when stock is received into a warehouse
type StockAddedEvent struct {
	shared.BaseDomainEvent
	VariantID   uuid.UUID `json:"variant_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	StockType   StockType `json:"stock_type"`
	Quantity    int64     `json:"quantity"`
	Balance     int64     `json:"balance"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(record *StockRecord, quantity int64) *StockAddedEvent {
	return &StockAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdded, AggregateTypeStock, record.VariantID),
		VariantID:       record.VariantID,
		WarehouseID:     record.WarehouseID,
		StockType:       record.StockType,
		Quantity:        quantity,
		Balance:         record.Quantity,
	}
}

// EventType returns the event type name
func (e *StockAddedEvent) EventType() string {
	return EventTypeStockAdded
}

// StockReducedEvent is raised when sellable stock is depleted for a variant
type StockReducedEvent struct {
	shared.BaseDomainEvent
	VariantID  uuid.UUID   `json:"variant_id"`
	Quantity   int64       `json:"quantity"`
	Deductions []Deduction `json:"deductions"`
}

// NewStockReducedEvent creates a new StockReducedEvent
func NewStockReducedEvent(variantID uuid.UUID, quantity int64, plan []Deduction) *StockReducedEvent {
	return &StockReducedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReduced, AggregateTypeStock, variantID),
		VariantID:       variantID,
		Quantity:        quantity,
		Deductions:      plan,
	}
}

// EventType returns the event type name
func (e *StockReducedEvent) EventType() string {
	return EventTypeStockReduced
}

// LowStockEvent is raised when the remaining stock of a variant drops below the alert threshold
type LowStockEvent struct {
	shared.BaseDomainEvent
	VariantID uuid.UUID `json:"variant_id"`
	Remaining int64     `json:"remaining"`
	Threshold int64     `json:"threshold"`
}

// NewLowStockEvent creates a new LowStockEvent
func NewLowStockEvent(variantID uuid.UUID, remaining, threshold int64) *LowStockEvent {
	return &LowStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStock, AggregateTypeStock, variantID),
		VariantID:       variantID,
		Remaining:       remaining,
		Threshold:       threshold,
	}
}

// EventType returns the event type name
func (e *LowStockEvent) EventType() string {
	return EventTypeLowStock
}

// StockRestorationFailedEvent records stock that could not be returned to a
// warehouse while the owning booking was removed anyway.
type StockRestorationFailedEvent struct {
	shared.BaseDomainEvent
	BookingID   uuid.UUID `json:"booking_id"`
	VariantID   uuid.UUID `json:"variant_id"`
	WarehouseID uuid.UUID `json:"warehouse_id,omitempty"`
	Quantity    int64     `json:"quantity"`
	Reason      string    `json:"reason"`
}

// NewStockRestorationFailedEvent creates a new StockRestorationFailedEvent
func NewStockRestorationFailedEvent(bookingID, variantID, warehouseID uuid.UUID, quantity int64, reason string) *StockRestorationFailedEvent {
	return &StockRestorationFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestorationFailed, AggregateTypeStock, variantID),
		BookingID:       bookingID,
		VariantID:       variantID,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *StockRestorationFailedEvent) EventType() string {
	return EventTypeStockRestorationFailed
}
