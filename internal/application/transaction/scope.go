// Package transaction defines the atomic scope that every multi-step
// mutation of bookings and stock runs in.
package transaction

import (
	"context"

	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
)

// Scope runs a function atomically. When fn returns an error the scope is
// rolled back and that error is returned unchanged; otherwise it commits.
// Scopes do not nest: one external request maps to one Execute call.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// EventRecorder stores domain events in the same unit of work as the state
// change that raised them.
type EventRecorder interface {
	Record(ctx context.Context, events ...shared.DomainEvent) error
}

// Repositories provides access to every repository bound to one scope.
// All repositories returned share the same underlying transaction.
type Repositories interface {
	StockRecords() inventory.StockRecordRepository
	Warehouses() partner.WarehouseRepository
	Products() catalog.ProductRepository
	Variants() catalog.VariantRepository
	Bookings() booking.Repository
	Users() identity.UserRepository
	Events() EventRecorder

	// Isolate runs fn in a savepoint. A failure inside fn rolls back only
	// the savepoint and is returned to the caller, which may carry on with
	// the enclosing scope.
	Isolate(ctx context.Context, fn func(repos Repositories) error) error
}
