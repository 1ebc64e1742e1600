package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockRecordRepository defines the interface for stock record persistence.
// Mutating methods are expected to run inside a transaction scope.
type StockRecordRepository interface {
	// LockByVariant locks every record of the variant (SELECT ... FOR UPDATE)
	// and returns them in depletion order: warehouse sort order, warehouse
	// creation time, warehouse ID, then stock type.
	LockByVariant(ctx context.Context, variantID uuid.UUID) ([]StockRecord, error)

	// FindByVariant returns the records of a variant in depletion order without locking
	FindByVariant(ctx context.Context, variantID uuid.UUID) ([]StockRecord, error)

	// SumByVariant returns the total quantity across all records of a variant
	SumByVariant(ctx context.Context, variantID uuid.UUID) (int64, error)

	// Increment atomically adds quantity to the keyed record, creating it if absent
	Increment(ctx context.Context, variantID, warehouseID uuid.UUID, stockType StockType, quantity int64) (*StockRecord, error)

	// Decrement atomically removes quantity from a record. It returns
	// shared.ErrInsufficientStock when the record holds less than quantity.
	Decrement(ctx context.Context, recordID uuid.UUID, quantity int64) error
}
