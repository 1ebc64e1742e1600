package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStockRecordRepository is a mock implementation of StockRecordRepository
type MockStockRecordRepository struct {
	mock.Mock
}

func (m *MockStockRecordRepository) LockByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockRecord), args.Error(1)
}

func (m *MockStockRecordRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockRecord), args.Error(1)
}

func (m *MockStockRecordRepository) SumByVariant(ctx context.Context, variantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRecordRepository) Increment(ctx context.Context, variantID, warehouseID uuid.UUID, stockType inventory.StockType, quantity int64) (*inventory.StockRecord, error) {
	args := m.Called(ctx, variantID, warehouseID, stockType, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockRecord), args.Error(1)
}

func (m *MockStockRecordRepository) Decrement(ctx context.Context, recordID uuid.UUID, quantity int64) error {
	args := m.Called(ctx, recordID, quantity)
	return args.Error(0)
}

// MockWarehouseRepository is a mock implementation of WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context) ([]partner.Warehouse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindDefault(ctx context.Context) (*partner.Warehouse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockWarehouseRepository) ClearDefault(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return m.Called(ctx, warehouse).Error(0)
}

// variantSet is an in-memory VariantRepository keyed by variant ID
type variantSet map[uuid.UUID]bool

func (v variantSet) FindByID(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	if !v[id] {
		return nil, shared.ErrNotFound
	}
	variant := &catalog.Variant{}
	variant.ID = id
	return variant, nil
}

func (v variantSet) FindByProduct(context.Context, uuid.UUID) ([]catalog.Variant, error) {
	return nil, nil
}

func (v variantSet) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return v[id], nil
}

func (v variantSet) Save(context.Context, *catalog.Variant) error {
	return nil
}

func newScope(stock *MockStockRecordRepository, warehouses *MockWarehouseRepository, variants variantSet, recorder *transaction.MemoryEventRecorder) *transaction.NoOpScope {
	scope := &transaction.NoOpScope{
		StockRecordRepo: stock,
		WarehouseRepo:   warehouses,
		VariantRepo:     variants,
	}
	if recorder != nil {
		scope.Recorder = recorder
	}
	return scope
}

func stockRecord(variantID, warehouseID uuid.UUID, st inventory.StockType, qty int64) inventory.StockRecord {
	r, _ := inventory.NewStockRecord(variantID, warehouseID, st)
	r.Quantity = qty
	return *r
}

func TestLedgerReduceStock(t *testing.T) {
	ctx := context.Background()
	variantID := uuid.New()
	whA, whB := uuid.New(), uuid.New()

	t.Run("depletes records in order", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		recorder := &transaction.MemoryEventRecorder{}
		first := stockRecord(variantID, whA, inventory.StockTypeRegular, 2)
		second := stockRecord(variantID, whB, inventory.StockTypeRegular, 5)
		stock.On("LockByVariant", ctx, variantID).Return([]inventory.StockRecord{first, second}, nil)
		stock.On("Decrement", ctx, first.ID, int64(2)).Return(nil)
		stock.On("Decrement", ctx, second.ID, int64(1)).Return(nil)

		ok, err := NewLedger(newScope(stock, nil, nil, recorder), 0).ReduceStock(ctx, variantID, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		stock.AssertExpectations(t)
		assert.Equal(t, []string{inventory.EventTypeStockReduced}, recorder.Types())
	})

	t.Run("insufficient stock mutates nothing", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		recorder := &transaction.MemoryEventRecorder{}
		stock.On("LockByVariant", ctx, variantID).Return([]inventory.StockRecord{
			stockRecord(variantID, whA, inventory.StockTypeRegular, 2),
			stockRecord(variantID, whA, inventory.StockTypeDamaged, 9),
		}, nil)

		ok, err := NewLedger(newScope(stock, nil, nil, recorder), 0).ReduceStock(ctx, variantID, 3)
		require.NoError(t, err)
		assert.False(t, ok)
		stock.AssertNotCalled(t, "Decrement", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, recorder.Events())
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		boom := errors.New("connection reset")
		rec := stockRecord(variantID, whA, inventory.StockTypeRegular, 5)
		stock.On("LockByVariant", ctx, variantID).Return([]inventory.StockRecord{rec}, nil)
		stock.On("Decrement", ctx, rec.ID, int64(1)).Return(boom)

		ok, err := NewLedger(newScope(stock, nil, nil, nil), 0).ReduceStock(ctx, variantID, 1)
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
	})

	t.Run("raises low stock below threshold", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		recorder := &transaction.MemoryEventRecorder{}
		rec := stockRecord(variantID, whA, inventory.StockTypeRegular, 4)
		stock.On("LockByVariant", ctx, variantID).Return([]inventory.StockRecord{rec}, nil)
		stock.On("Decrement", ctx, rec.ID, int64(3)).Return(nil)

		ok, err := NewLedger(newScope(stock, nil, nil, recorder), 2).ReduceStock(ctx, variantID, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{inventory.EventTypeStockReduced, inventory.EventTypeLowStock}, recorder.Types())
		low := recorder.Events()[1].(*inventory.LowStockEvent)
		assert.Equal(t, int64(1), low.Remaining)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewLedger(newScope(nil, nil, nil, nil), 0).ReduceStock(ctx, variantID, 0)
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})
}

func TestLedgerAddStock(t *testing.T) {
	ctx := context.Background()
	variantID, warehouseID := uuid.New(), uuid.New()
	warehouse := &partner.Warehouse{}
	warehouse.ID = warehouseID

	t.Run("increments keyed record", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		warehouses := new(MockWarehouseRepository)
		recorder := &transaction.MemoryEventRecorder{}
		rec := stockRecord(variantID, warehouseID, inventory.StockTypeRegular, 10)
		warehouses.On("FindByID", ctx, warehouseID).Return(warehouse, nil)
		stock.On("Increment", ctx, variantID, warehouseID, inventory.StockTypeRegular, int64(10)).Return(&rec, nil)

		ok, err := NewLedger(newScope(stock, warehouses, variantSet{variantID: true}, recorder), 0).
			AddStock(ctx, variantID, warehouseID, 10, inventory.StockTypeRegular)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{inventory.EventTypeStockAdded}, recorder.Types())
	})

	t.Run("unknown warehouse", func(t *testing.T) {
		warehouses := new(MockWarehouseRepository)
		warehouses.On("FindByID", ctx, warehouseID).Return(nil, shared.ErrNotFound)

		_, err := NewLedger(newScope(new(MockStockRecordRepository), warehouses, variantSet{variantID: true}, nil), 0).
			AddStock(ctx, variantID, warehouseID, 1, inventory.StockTypeRegular)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := NewLedger(newScope(nil, nil, variantSet{}, nil), 0).
			AddStock(ctx, variantID, warehouseID, 1, inventory.StockTypeRegular)
		assert.True(t, shared.HasCode(err, shared.CodeNotFound))
	})

	t.Run("invalid input", func(t *testing.T) {
		ledger := NewLedger(newScope(nil, nil, nil, nil), 0)
		_, err := ledger.AddStock(ctx, variantID, warehouseID, -1, inventory.StockTypeRegular)
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
		_, err = ledger.AddStock(ctx, variantID, warehouseID, 1, inventory.StockType("Lost"))
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		stock := new(MockStockRecordRepository)
		warehouses := new(MockWarehouseRepository)
		boom := errors.New("disk full")
		warehouses.On("FindByID", ctx, warehouseID).Return(warehouse, nil)
		stock.On("Increment", ctx, variantID, warehouseID, inventory.StockTypeDemo, int64(1)).Return(nil, boom)

		ok, err := NewLedger(newScope(stock, warehouses, variantSet{variantID: true}, nil), 0).
			AddStock(ctx, variantID, warehouseID, 1, inventory.StockTypeDemo)
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
	})
}

func TestLedgerRestoreToDefault(t *testing.T) {
	ctx := context.Background()
	variantID := uuid.New()
	def := &partner.Warehouse{IsDefault: true}
	def.ID = uuid.New()

	stock := new(MockStockRecordRepository)
	warehouses := new(MockWarehouseRepository)
	rec := stockRecord(variantID, def.ID, inventory.StockTypeRegular, 2)
	warehouses.On("FindDefault", ctx).Return(def, nil)
	warehouses.On("FindByID", ctx, def.ID).Return(def, nil)
	stock.On("Increment", ctx, variantID, def.ID, inventory.StockTypeRegular, int64(2)).Return(&rec, nil)

	target, err := NewLedger(newScope(stock, warehouses, variantSet{variantID: true}, nil), 0).RestoreToDefault(ctx, variantID, 2)
	require.NoError(t, err)
	assert.Equal(t, def.ID, target)
	stock.AssertExpectations(t)
}
