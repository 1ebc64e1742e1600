package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Product", id)
		}
		return nil, err
	}
	return &product, nil
}

// ExistsByCode checks if a product code is taken
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a product and its variants
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GormVariantRepository implements VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	var variant catalog.Variant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Variant", id)
		}
		return nil, err
	}
	return &variant, nil
}

// FindByProduct returns the variants of a product ordered by creation
func (r *GormVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	var variants []catalog.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Exists checks whether a variant with the given ID exists
func (r *GormVariantRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save updates a variant in place, keeping its identity
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.Variant) error {
	result := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id = ?", variant.ID).
		Updates(map[string]any{
			"capacity":         variant.Capacity,
			"price":            variant.Price,
			"installation_fee": variant.InstallationFee,
			"status":           variant.Status,
			"updated_at":       variant.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Variant", variant.ID)
	}
	return nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.VariantRepository = (*GormVariantRepository)(nil)
)
