package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product with its variants
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// ExistsByCode checks whether a product code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Create persists a new product together with its variants
	Create(ctx context.Context, product *Product) error
}

// VariantRepository defines the interface for variant persistence
type VariantRepository interface {
	// FindByID finds a variant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Variant, error)

	// FindByProduct returns the variants of a product ordered by creation
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)

	// Exists checks whether a variant with the given ID exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Save updates a variant in place
	Save(ctx context.Context, variant *Variant) error
}
