package inventory

import (
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
)

// StockType classifies the quantity held in a stock record
type StockType string

const (
	StockTypeRegular  StockType = "Regular"
	StockTypeReserved StockType = "Reserved"
	StockTypeDamaged  StockType = "Damaged"
	StockTypeDemo     StockType = "Demo"
)

// AllStockTypes lists every known stock type in depletion order
var AllStockTypes = []StockType{StockTypeRegular, StockTypeReserved, StockTypeDamaged, StockTypeDemo}

// IsValid returns true if the stock type is known
func (t StockType) IsValid() bool {
	switch t {
	case StockTypeRegular, StockTypeReserved, StockTypeDamaged, StockTypeDemo:
		return true
	}
	return false
}

// IsSellable reports whether bookings may draw from this stock type
func (t StockType) IsSellable() bool {
	return t == StockTypeRegular
}

// ParseStockType parses a stock type, defaulting to Regular when empty
func ParseStockType(s string) (StockType, error) {
	if s == "" {
		return StockTypeRegular, nil
	}
	for _, t := range AllStockTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", shared.NewValidationError("Invalid stock type: %s", s)
}

// StockRecord is the quantity of a variant held at one warehouse under one
// stock classification. Records are created on first receipt and never
// deleted, only zeroed.
type StockRecord struct {
	shared.BaseEntity
	VariantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:1"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_key,priority:2;index"`
	StockType   StockType `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_record_key,priority:3"`
	Quantity    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates an empty stock record for the given key
func NewStockRecord(variantID, warehouseID uuid.UUID, stockType StockType) (*StockRecord, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("Variant ID is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Warehouse ID is required")
	}
	if !stockType.IsValid() {
		return nil, shared.NewValidationError("Invalid stock type: %s", stockType)
	}
	return &StockRecord{
		BaseEntity:  shared.NewBaseEntity(),
		VariantID:   variantID,
		WarehouseID: warehouseID,
		StockType:   stockType,
	}, nil
}

// Deduction is one step of a stock reduction plan
type Deduction struct {
	RecordID    uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int64
}

// PlanReduction walks records in the given order and takes sellable stock
// until quantity is covered. It returns false and no plan when the sellable
// total is short; the caller must not mutate anything in that case.
func PlanReduction(records []StockRecord, quantity int64) ([]Deduction, bool) {
	if quantity <= 0 {
		return nil, false
	}
	var available int64
	for _, r := range records {
		if r.StockType.IsSellable() && r.Quantity > 0 {
			available += r.Quantity
		}
	}
	if available < quantity {
		return nil, false
	}

	plan := make([]Deduction, 0, len(records))
	remaining := quantity
	for _, r := range records {
		if remaining == 0 {
			break
		}
		if !r.StockType.IsSellable() || r.Quantity <= 0 {
			continue
		}
		take := min(r.Quantity, remaining)
		plan = append(plan, Deduction{RecordID: r.ID, WarehouseID: r.WarehouseID, Quantity: take})
		remaining -= take
	}
	return plan, true
}

// SumQuantity totals the quantity of the given records regardless of type
func SumQuantity(records []StockRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Quantity
	}
	return total
}
