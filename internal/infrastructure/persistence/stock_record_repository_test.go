package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormStockRecordRepository_Increment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the record on first receipt", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormStockRecordRepository(db)
		wh := seedWarehouse(t, db, "WH-A", 0, true)
		v := seedVariant(t, db, "AC-100")

		record, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), record.Quantity)
		assert.Equal(t, inventory.StockTypeRegular, record.StockType)
	})

	t.Run("accumulates into the same keyed record", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormStockRecordRepository(db)
		wh := seedWarehouse(t, db, "WH-A", 0, true)
		v := seedVariant(t, db, "AC-100")

		first, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 5)
		require.NoError(t, err)
		second, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 3)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(8), second.Quantity)

		var count int64
		require.NoError(t, db.Model(&inventory.StockRecord{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("stock types are kept in separate records", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormStockRecordRepository(db)
		wh := seedWarehouse(t, db, "WH-A", 0, true)
		v := seedVariant(t, db, "AC-100")

		_, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 5)
		require.NoError(t, err)
		_, err = repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeDamaged, 2)
		require.NoError(t, err)

		records, err := repo.FindByVariant(ctx, v.ID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestGormStockRecordRepository_DepletionOrder(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)

	second := seedWarehouse(t, db, "WH-B", 20, false)
	first := seedWarehouse(t, db, "WH-A", 10, true)
	v := seedVariant(t, db, "AC-100")

	seedStock(t, db, v.ID, second.ID, inventory.StockTypeRegular, 4)
	seedStock(t, db, v.ID, first.ID, inventory.StockTypeReserved, 1)
	seedStock(t, db, v.ID, first.ID, inventory.StockTypeRegular, 2)

	records, err := repo.LockByVariant(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, first.ID, records[0].WarehouseID)
	assert.Equal(t, inventory.StockTypeRegular, records[0].StockType)
	assert.Equal(t, first.ID, records[1].WarehouseID)
	assert.Equal(t, inventory.StockTypeReserved, records[1].StockType)
	assert.Equal(t, second.ID, records[2].WarehouseID)
}

func TestGormStockRecordRepository_SumByVariant(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormStockRecordRepository(db)
	wh := seedWarehouse(t, db, "WH-A", 0, true)
	v := seedVariant(t, db, "AC-100")

	t.Run("unknown variant sums to zero", func(t *testing.T) {
		total, err := repo.SumByVariant(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("sums every stock type", func(t *testing.T) {
		seedStock(t, db, v.ID, wh.ID, inventory.StockTypeRegular, 5)
		seedStock(t, db, v.ID, wh.ID, inventory.StockTypeDemo, 1)

		total, err := repo.SumByVariant(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
	})
}

func TestGormStockRecordRepository_Decrement(t *testing.T) {
	ctx := context.Background()

	t.Run("removes quantity from the record", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormStockRecordRepository(db)
		wh := seedWarehouse(t, db, "WH-A", 0, true)
		v := seedVariant(t, db, "AC-100")
		record, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 5)
		require.NoError(t, err)

		require.NoError(t, repo.Decrement(ctx, record.ID, 5))

		total, err := repo.SumByVariant(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("never drives a record negative", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormStockRecordRepository(db)
		wh := seedWarehouse(t, db, "WH-A", 0, true)
		v := seedVariant(t, db, "AC-100")
		record, err := repo.Increment(ctx, v.ID, wh.ID, inventory.StockTypeRegular, 2)
		require.NoError(t, err)

		err = repo.Decrement(ctx, record.ID, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		total, err := repo.SumByVariant(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("guard is part of the update statement", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)
		repo := NewGormStockRecordRepository(gormDB)

		recordID := uuid.New()
		mock.ExpectExec(`UPDATE "stock_records" SET .* WHERE id = \$\d+ AND quantity >= \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Decrement(ctx, recordID, 4)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
