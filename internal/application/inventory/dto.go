package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
)

// StockRecordResponse represents one stock record in API responses
type StockRecordResponse struct {
	ID            uuid.UUID           `json:"id"`
	WarehouseID   uuid.UUID           `json:"warehouse_id"`
	WarehouseCode string              `json:"warehouse_code"`
	WarehouseName string              `json:"warehouse_name"`
	StockType     inventory.StockType `json:"stock_type"`
	Quantity      int64               `json:"quantity"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// StockBreakdownResponse is the stock of a variant across warehouses
type StockBreakdownResponse struct {
	VariantID     uuid.UUID             `json:"variant_id"`
	TotalQuantity int64                 `json:"total_quantity"`
	Sellable      int64                 `json:"sellable_quantity"`
	Records       []StockRecordResponse `json:"records"`
}

// AddStockRequest represents a request to receive stock
type AddStockRequest struct {
	VariantID   uuid.UUID `json:"variant_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id"` // zero means the default warehouse
	Quantity    int64     `json:"quantity" binding:"required,min=1"`
	StockType   string    `json:"stock_type" binding:"omitempty,oneof=Regular Reserved Damaged Demo"`
}

// ReduceStockRequest represents a request to take stock for a variant
type ReduceStockRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,min=1"`
}

// StockMutationResponse reports the outcome of a ledger mutation
type StockMutationResponse struct {
	VariantID  uuid.UUID `json:"variant_id"`
	Applied    bool      `json:"applied"`
	TotalStock int64     `json:"total_stock"`
}

// ToStockBreakdownResponse joins records with warehouse details
func ToStockBreakdownResponse(variantID uuid.UUID, records []inventory.StockRecord, warehouses []partner.Warehouse) *StockBreakdownResponse {
	byID := make(map[uuid.UUID]partner.Warehouse, len(warehouses))
	for _, w := range warehouses {
		byID[w.ID] = w
	}

	resp := &StockBreakdownResponse{
		VariantID:     variantID,
		TotalQuantity: inventory.SumQuantity(records),
		Records:       make([]StockRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		w := byID[r.WarehouseID]
		resp.Records = append(resp.Records, StockRecordResponse{
			ID:            r.ID,
			WarehouseID:   r.WarehouseID,
			WarehouseCode: w.Code,
			WarehouseName: w.Name,
			StockType:     r.StockType,
			Quantity:      r.Quantity,
			UpdatedAt:     r.UpdatedAt,
		})
		if r.StockType.IsSellable() {
			resp.Sellable += r.Quantity
		}
	}
	return resp
}
