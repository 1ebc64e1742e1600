package catalog

import (
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeProduct = "Product"
	AggregateTypeVariant = "Variant"
)

// Event type constants
const (
	EventTypeProductRegistered = "ProductRegistered"
	EventTypeVariantUpdated    = "VariantUpdated"
)

// ProductRegisteredEvent is raised when a product and its variants are registered
type ProductRegisteredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
}

// NewProductRegisteredEvent creates a new ProductRegisteredEvent
func NewProductRegisteredEvent(product *Product) *ProductRegisteredEvent {
	return &ProductRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductRegistered, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Code:            product.Code,
		Name:            product.Name,
	}
}

// EventType returns the event type name
func (e *ProductRegisteredEvent) EventType() string {
	return EventTypeProductRegistered
}

// VariantUpdatedEvent is raised when a variant is updated in place
type VariantUpdatedEvent struct {
	shared.BaseDomainEvent
	VariantID       uuid.UUID       `json:"variant_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Capacity        string          `json:"capacity"`
	Price           decimal.Decimal `json:"price"`
	InstallationFee decimal.Decimal `json:"installation_fee"`
	Status          VariantStatus   `json:"status"`
}

// NewVariantUpdatedEvent creates a new VariantUpdatedEvent
func NewVariantUpdatedEvent(v *Variant) *VariantUpdatedEvent {
	return &VariantUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariantUpdated, AggregateTypeVariant, v.ID),
		VariantID:       v.ID,
		ProductID:       v.ProductID,
		Capacity:        v.Capacity,
		Price:           v.Price,
		InstallationFee: v.InstallationFee,
		Status:          v.Status,
	}
}

// EventType returns the event type name
func (e *VariantUpdatedEvent) EventType() string {
	return EventTypeVariantUpdated
}
