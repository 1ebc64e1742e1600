package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// depletionOrder is the order in which stock is taken from warehouses
const depletionOrder = "warehouses.sort_order ASC, warehouses.created_at ASC, warehouses.id ASC, stock_records.stock_type ASC"

// GormStockRecordRepository implements StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// LockByVariant locks the variant's records with SELECT ... FOR UPDATE and
// returns them in depletion order. The lock is held until the enclosing
// transaction ends.
func (r *GormStockRecordRepository) LockByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	err := r.byVariant(ctx, variantID).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "stock_records"}}).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByVariant returns the records of a variant in depletion order
func (r *GormStockRecordRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	if err := r.byVariant(ctx, variantID).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SumByVariant returns the total quantity across every record of the variant
func (r *GormStockRecordRepository) SumByVariant(ctx context.Context, variantID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("variant_id = ?", variantID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Increment adds quantity to the keyed record. The record is created with
// zero quantity first if absent, so concurrent first receipts converge on
// one row through the unique key.
func (r *GormStockRecordRepository) Increment(ctx context.Context, variantID, warehouseID uuid.UUID, stockType inventory.StockType, quantity int64) (*inventory.StockRecord, error) {
	fresh, err := inventory.NewStockRecord(variantID, warehouseID, stockType)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variant_id"}, {Name: "warehouse_id"}, {Name: "stock_type"}},
		DoNothing: true,
	}).Create(fresh).Error
	if err != nil {
		return nil, fmt.Errorf("ensure stock record: %w", err)
	}

	key := db.Model(&inventory.StockRecord{}).
		Where("variant_id = ? AND warehouse_id = ? AND stock_type = ?", variantID, warehouseID, stockType)
	if err := key.Updates(map[string]any{
		"quantity":   gorm.Expr("quantity + ?", quantity),
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, err
	}

	var record inventory.StockRecord
	if err := db.Where("variant_id = ? AND warehouse_id = ? AND stock_type = ?", variantID, warehouseID, stockType).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Decrement removes quantity from one record. The guard in the WHERE clause
// keeps the quantity non-negative even without a prior lock.
func (r *GormStockRecordRepository) Decrement(ctx context.Context, recordID uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).
		Where("id = ? AND quantity >= ?", recordID, quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

func (r *GormStockRecordRepository) byVariant(ctx context.Context, variantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&inventory.StockRecord{}).
		Select("stock_records.*").
		Joins("JOIN warehouses ON warehouses.id = stock_records.warehouse_id").
		Where("stock_records.variant_id = ?", variantID).
		Order(depletionOrder)
}

// Ensure GormStockRecordRepository implements StockRecordRepository
var _ inventory.StockRecordRepository = (*GormStockRecordRepository)(nil)
