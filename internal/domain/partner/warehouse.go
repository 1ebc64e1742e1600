package partner

import (
	"strings"
	"time"

	"github.com/servicebook/backend/internal/domain/shared"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is a stock location. The directory exposes the default
// warehouse that receives restored stock when no target is named.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Address   string          `gorm:"type:text"`
	Status    WarehouseStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsDefault bool            `gorm:"not null;default:false"`
	SortOrder int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new active warehouse
func NewWarehouse(code, name, address string) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if err := validateWarehouseCode(code); err != nil {
		return nil, err
	}
	if err := validateWarehouseName(name); err != nil {
		return nil, err
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Address:           strings.TrimSpace(address),
		Status:            WarehouseStatusActive,
	}, nil
}

// SetDefault marks this warehouse as the default warehouse
func (w *Warehouse) SetDefault(isDefault bool) {
	w.IsDefault = isDefault
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// SetSortOrder sets the depletion and display order
func (w *Warehouse) SetSortOrder(order int) {
	w.SortOrder = order
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// IsActive returns true if the warehouse is active
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}

func validateWarehouseCode(code string) error {
	if code == "" {
		return shared.NewValidationError("Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("Warehouse code cannot exceed 50 characters")
	}
	return nil
}

func validateWarehouseName(name string) error {
	if name == "" {
		return shared.NewValidationError("Warehouse name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Warehouse name cannot exceed 200 characters")
	}
	return nil
}
