package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// RegisterProductRequest registers a product with its variants and opening stock
type RegisterProductRequest struct {
	Code        string                   `json:"code" binding:"required,min=1,max=50"`
	Name        string                   `json:"name" binding:"required,min=1,max=200"`
	Description string                   `json:"description" binding:"max=2000"`
	Variants    []RegisterVariantRequest `json:"variants" binding:"required,min=1,dive"`
}

// RegisterVariantRequest describes one variant of a product being registered
type RegisterVariantRequest struct {
	Capacity        string                `json:"capacity" binding:"required,max=50"`
	Price           decimal.Decimal       `json:"price"`
	InstallationFee decimal.Decimal       `json:"installation_fee"`
	InitialStock    []InitialStockRequest `json:"initial_stock" binding:"omitempty,dive"`
}

// InitialStockRequest is opening stock for a variant at a warehouse
type InitialStockRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity    int64     `json:"quantity" binding:"required,min=1"`
	StockType   string    `json:"stock_type" binding:"omitempty,oneof=Regular Reserved Damaged Demo"`
}

// UpdateVariantRequest updates a variant in place. Omitted fields are unchanged.
type UpdateVariantRequest struct {
	Capacity        *string          `json:"capacity" binding:"omitempty,max=50"`
	Price           *decimal.Decimal `json:"price"`
	InstallationFee *decimal.Decimal `json:"installation_fee"`
	Status          *string          `json:"status" binding:"omitempty,oneof=active inactive"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Capacity        string          `json:"capacity"`
	Price           decimal.Decimal `json:"price"`
	InstallationFee decimal.Decimal `json:"installation_fee"`
	Status          string          `json:"status"`
	TotalStock      int64           `json:"total_stock"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ToVariantResponse converts a domain Variant to VariantResponse
func ToVariantResponse(v *catalog.Variant, totalStock int64) VariantResponse {
	return VariantResponse{
		ID:              v.ID,
		ProductID:       v.ProductID,
		Capacity:        v.Capacity,
		Price:           v.Price,
		InstallationFee: v.InstallationFee,
		Status:          string(v.Status),
		TotalStock:      totalStock,
		UpdatedAt:       v.UpdatedAt,
	}
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product, stock map[uuid.UUID]int64) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i := range p.Variants {
		variants[i] = ToVariantResponse(&p.Variants[i], stock[p.Variants[i].ID])
	}
	return ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
	}
}
