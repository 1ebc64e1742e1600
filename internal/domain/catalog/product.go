package catalog

import (
	"strings"
	"time"

	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product groups the purchasable variants of one catalog item.
// It is the aggregate root for variant creation.
type Product struct {
	shared.BaseAggregateRoot
	Code        string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string        `gorm:"type:varchar(200);not null"`
	Description string        `gorm:"type:text"`
	Status      ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Variants    []Variant     `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product without variants
func NewProduct(code, name, description string) (*Product, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Description:       description,
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductRegisteredEvent(product))

	return product, nil
}

// AddVariant attaches a new variant. Capacity labels must be unique within
// the product because customers pick variants by capacity.
func (p *Product) AddVariant(capacity string, price, installationFee decimal.Decimal) (*Variant, error) {
	capacity = strings.TrimSpace(capacity)
	for _, v := range p.Variants {
		if strings.EqualFold(v.Capacity, capacity) {
			return nil, shared.NewValidationError("Variant with capacity %q already exists", capacity)
		}
	}

	variant, err := NewVariant(p.ID, capacity, price, installationFee)
	if err != nil {
		return nil, err
	}

	p.Variants = append(p.Variants, *variant)
	p.UpdatedAt = time.Now()
	return &p.Variants[len(p.Variants)-1], nil
}

// IsActive returns true if the product can be booked
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewValidationError("Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewValidationError("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Product name cannot exceed 200 characters")
	}
	return nil
}
