package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
)

// Ledger applies stock mutations through repositories bound to an open
// scope. Callers that already hold a scope (the booking engine) use it
// directly so that stock and booking changes commit together.
type Ledger struct {
	repos             transaction.Repositories
	lowStockThreshold int64
}

// NewLedger creates a ledger over the given scoped repositories.
// A zero threshold disables low-stock events.
func NewLedger(repos transaction.Repositories, lowStockThreshold int64) *Ledger {
	return &Ledger{repos: repos, lowStockThreshold: lowStockThreshold}
}

// ReduceStock takes quantity units of sellable stock for the variant across
// warehouses. It returns false, with nothing mutated, when the variant does
// not hold enough. A storage failure is returned as an error and must abort
// the enclosing scope.
func (l *Ledger) ReduceStock(ctx context.Context, variantID uuid.UUID, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, shared.NewValidationError("Quantity must be a positive integer")
	}

	records, err := l.repos.StockRecords().LockByVariant(ctx, variantID)
	if err != nil {
		return false, fmt.Errorf("lock stock records: %w", err)
	}

	plan, ok := inventory.PlanReduction(records, quantity)
	if !ok {
		return false, nil
	}

	for _, d := range plan {
		if err := l.repos.StockRecords().Decrement(ctx, d.RecordID, d.Quantity); err != nil {
			return false, fmt.Errorf("decrement stock record %s: %w", d.RecordID, err)
		}
	}

	events := []shared.DomainEvent{inventory.NewStockReducedEvent(variantID, quantity, plan)}
	remaining := sellable(records) - quantity
	if l.lowStockThreshold > 0 && remaining < l.lowStockThreshold {
		events = append(events, inventory.NewLowStockEvent(variantID, remaining, l.lowStockThreshold))
	}
	if err := l.repos.Events().Record(ctx, events...); err != nil {
		return false, fmt.Errorf("record stock events: %w", err)
	}
	return true, nil
}

// AddStock increments the (variant, warehouse, stockType) record, creating
// it on first receipt.
func (l *Ledger) AddStock(ctx context.Context, variantID, warehouseID uuid.UUID, quantity int64, stockType inventory.StockType) (bool, error) {
	if quantity <= 0 {
		return false, shared.NewValidationError("Quantity must be a positive integer")
	}
	if !stockType.IsValid() {
		return false, shared.NewValidationError("Invalid stock type: %s", stockType)
	}

	exists, err := l.repos.Variants().Exists(ctx, variantID)
	if err != nil {
		return false, fmt.Errorf("check variant: %w", err)
	}
	if !exists {
		return false, shared.NewNotFoundError("Variant", variantID)
	}
	if _, err := l.repos.Warehouses().FindByID(ctx, warehouseID); err != nil {
		if shared.HasCode(err, shared.CodeNotFound) {
			return false, shared.NewNotFoundError("Warehouse", warehouseID)
		}
		return false, fmt.Errorf("find warehouse: %w", err)
	}

	record, err := l.repos.StockRecords().Increment(ctx, variantID, warehouseID, stockType, quantity)
	if err != nil {
		return false, fmt.Errorf("increment stock record: %w", err)
	}
	if err := l.repos.Events().Record(ctx, inventory.NewStockAddedEvent(record, quantity)); err != nil {
		return false, fmt.Errorf("record stock events: %w", err)
	}
	return true, nil
}

// RestoreToDefault returns quantity units of Regular stock to the default warehouse
func (l *Ledger) RestoreToDefault(ctx context.Context, variantID uuid.UUID, quantity int64) (uuid.UUID, error) {
	warehouse, err := l.repos.Warehouses().FindDefault(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find default warehouse: %w", err)
	}
	if _, err := l.AddStock(ctx, variantID, warehouse.ID, quantity, inventory.StockTypeRegular); err != nil {
		return warehouse.ID, err
	}
	return warehouse.ID, nil
}

// TotalStock sums every record of the variant regardless of stock type
func (l *Ledger) TotalStock(ctx context.Context, variantID uuid.UUID) (int64, error) {
	return l.repos.StockRecords().SumByVariant(ctx, variantID)
}

func sellable(records []inventory.StockRecord) int64 {
	var total int64
	for _, r := range records {
		if r.StockType.IsSellable() {
			total += r.Quantity
		}
	}
	return total
}
