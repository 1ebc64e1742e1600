package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newSQLiteDB opens a private in-memory database with the full schema
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedWarehouse(t *testing.T, db *gorm.DB, code string, sortOrder int, isDefault bool) *partner.Warehouse {
	t.Helper()
	w, err := partner.NewWarehouse(code, "Warehouse "+code, "")
	require.NoError(t, err)
	w.SortOrder = sortOrder
	w.IsDefault = isDefault
	require.NoError(t, NewGormWarehouseRepository(db).Save(context.Background(), w))
	return w
}

func seedVariant(t *testing.T, db *gorm.DB, code string) *catalog.Variant {
	t.Helper()
	p, err := catalog.NewProduct(code, "Product "+code, "")
	require.NoError(t, err)
	_, err = p.AddVariant("1.5P", decimal.NewFromInt(2000), decimal.NewFromInt(150))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(context.Background(), p))
	return &p.Variants[0]
}

func seedStock(t *testing.T, db *gorm.DB, variantID, warehouseID uuid.UUID, stockType inventory.StockType, quantity int64) {
	t.Helper()
	_, err := NewGormStockRecordRepository(db).Increment(context.Background(), variantID, warehouseID, stockType, quantity)
	require.NoError(t, err)
}

func seedUser(t *testing.T, db *gorm.DB, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, "passw0rd1", role)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func seedBooking(t *testing.T, db *gorm.DB, customerID, variantID uuid.UUID, quantity int64) *booking.Booking {
	t.Helper()
	schedule, err := booking.NewSchedule(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), "09:30")
	require.NoError(t, err)
	b, err := booking.NewBooking(customerID, variantID, quantity, booking.PriceTypeFreeInstall, decimal.NewFromInt(2000), schedule, "12 Harbour Road", "")
	require.NoError(t, err)
	require.NoError(t, NewGormBookingRepository(db).Create(context.Background(), b))
	return b
}
