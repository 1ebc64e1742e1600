package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VariantStatus represents whether a variant can be booked
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusInactive VariantStatus = "inactive"
)

// Variant is a purchasable configuration of a product, the unit that
// bookings and stock records refer to.
type Variant struct {
	shared.BaseEntity
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Capacity        string          `gorm:"type:varchar(50);not null"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	InstallationFee decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status          VariantStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Variant) TableName() string {
	return "product_variants"
}

// NewVariant creates a variant for the given product
func NewVariant(productID uuid.UUID, capacity string, price, installationFee decimal.Decimal) (*Variant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID is required")
	}
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}
	if err := validatePrices(price, installationFee); err != nil {
		return nil, err
	}

	return &Variant{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		Capacity:        strings.TrimSpace(capacity),
		Price:           price,
		InstallationFee: installationFee,
		Status:          VariantStatusActive,
	}, nil
}

// UnitPrice returns the per-unit price, adding the installation fee when
// installation is part of the booking.
func (v *Variant) UnitPrice(withInstallation bool) decimal.Decimal {
	if withInstallation {
		return v.Price.Add(v.InstallationFee)
	}
	return v.Price
}

// VariantPatch carries the fields of an in-place variant update. Nil means unchanged.
type VariantPatch struct {
	Capacity        *string
	Price           *decimal.Decimal
	InstallationFee *decimal.Decimal
	Status          *VariantStatus
}

// Apply updates the variant in place, keeping its identity stable so that
// bookings and stock records stay attached to it.
func (v *Variant) Apply(patch VariantPatch) error {
	capacity := v.Capacity
	price := v.Price
	fee := v.InstallationFee
	status := v.Status

	if patch.Capacity != nil {
		capacity = strings.TrimSpace(*patch.Capacity)
		if err := validateCapacity(capacity); err != nil {
			return err
		}
	}
	if patch.Price != nil {
		price = *patch.Price
	}
	if patch.InstallationFee != nil {
		fee = *patch.InstallationFee
	}
	if err := validatePrices(price, fee); err != nil {
		return err
	}
	if patch.Status != nil {
		if *patch.Status != VariantStatusActive && *patch.Status != VariantStatusInactive {
			return shared.NewValidationError("Invalid variant status: %s", *patch.Status)
		}
		status = *patch.Status
	}

	v.Capacity = capacity
	v.Price = price
	v.InstallationFee = fee
	v.Status = status
	v.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the variant can be booked
func (v *Variant) IsActive() bool {
	return v.Status == VariantStatusActive
}

func validateCapacity(capacity string) error {
	capacity = strings.TrimSpace(capacity)
	if capacity == "" {
		return shared.NewValidationError("Variant capacity cannot be empty")
	}
	if len(capacity) > 50 {
		return shared.NewValidationError("Variant capacity cannot exceed 50 characters")
	}
	return nil
}

func validatePrices(price, installationFee decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("Variant price cannot be negative")
	}
	if installationFee.IsNegative() {
		return shared.NewValidationError("Installation fee cannot be negative")
	}
	return nil
}
