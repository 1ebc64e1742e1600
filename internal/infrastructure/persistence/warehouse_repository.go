package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// FindAll returns every warehouse in directory order
func (r *GormWarehouseRepository) FindAll(ctx context.Context) ([]partner.Warehouse, error) {
	var warehouses []partner.Warehouse
	if err := r.directoryOrder(r.db.WithContext(ctx)).Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// FindDefault returns the active warehouse flagged as default, or the first
// active warehouse in directory order when none is flagged
func (r *GormWarehouseRepository) FindDefault(ctx context.Context) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	err := r.directoryOrder(
		r.db.WithContext(ctx).
			Where("status = ?", partner.WarehouseStatusActive).
			Order("is_default DESC"),
	).First(&warehouse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "No default warehouse configured")
		}
		return nil, err
	}
	return &warehouse, nil
}

// ExistsByCode checks if a warehouse with the given code exists
func (r *GormWarehouseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&partner.Warehouse{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClearDefault unsets the default flag on every warehouse
func (r *GormWarehouseRepository) ClearDefault(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&partner.Warehouse{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return r.db.WithContext(ctx).Save(warehouse).Error
}

func (r *GormWarehouseRepository) directoryOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC").Order("id ASC")
}

// Ensure GormWarehouseRepository implements WarehouseRepository
var _ partner.WarehouseRepository = (*GormWarehouseRepository)(nil)
