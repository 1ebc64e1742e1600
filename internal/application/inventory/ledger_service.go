package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"go.uber.org/zap"
)

// LedgerService exposes the inventory ledger as standalone operations, each
// running in its own atomic scope.
type LedgerService struct {
	scope             transaction.Scope
	stockRepo         inventory.StockRecordRepository
	warehouseRepo     partner.WarehouseRepository
	lowStockThreshold int64
	logger            *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope transaction.Scope,
	stockRepo inventory.StockRecordRepository,
	warehouseRepo partner.WarehouseRepository,
	lowStockThreshold int64,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:             scope,
		stockRepo:         stockRepo,
		warehouseRepo:     warehouseRepo,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// ReduceStock atomically takes quantity units of the variant. False means
// insufficient inventory and nothing was changed.
func (s *LedgerService) ReduceStock(ctx context.Context, variantID uuid.UUID, quantity int64) (bool, error) {
	var ok bool
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		ok, err = NewLedger(repos, s.lowStockThreshold).ReduceStock(ctx, variantID, quantity)
		return err
	})
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Info("Stock reduction rejected",
			zap.String("variant_id", variantID.String()),
			zap.Int64("quantity", quantity))
	}
	return ok, nil
}

// AddStock atomically adds quantity to the keyed stock record
func (s *LedgerService) AddStock(ctx context.Context, variantID, warehouseID uuid.UUID, quantity int64, stockType inventory.StockType) (bool, error) {
	var ok bool
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		ok, err = NewLedger(repos, s.lowStockThreshold).AddStock(ctx, variantID, warehouseID, quantity, stockType)
		return err
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// TotalStock returns the sum of all stock records of the variant
func (s *LedgerService) TotalStock(ctx context.Context, variantID uuid.UUID) (int64, error) {
	return s.stockRepo.SumByVariant(ctx, variantID)
}

// StockBreakdown returns the per-warehouse records of a variant with warehouse names
func (s *LedgerService) StockBreakdown(ctx context.Context, variantID uuid.UUID) (*StockBreakdownResponse, error) {
	records, err := s.stockRepo.FindByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.warehouseRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToStockBreakdownResponse(variantID, records, warehouses), nil
}
