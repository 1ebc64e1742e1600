package partner

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindAll returns every warehouse in directory order (sort_order, created_at)
	FindAll(ctx context.Context) ([]Warehouse, error)

	// FindDefault returns the warehouse flagged as default, falling back to
	// the first warehouse in directory order
	FindDefault(ctx context.Context) (*Warehouse, error)

	// ExistsByCode checks whether a warehouse code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ClearDefault unsets the default flag on every warehouse
	ClearDefault(ctx context.Context) error

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error
}
