package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBookingRepository implements booking.Repository using GORM.
// Soft-deleted rows are filtered out of every read.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking with its technician assignments
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.find(ctx, id, false)
}

// FindByIDForUpdate finds a booking and locks its row until the enclosing
// transaction ends
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.find(ctx, id, true)
}

func (r *GormBookingRepository) find(ctx context.Context, id uuid.UUID, lock bool) (*booking.Booking, error) {
	db := r.live(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var b booking.Booking
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Booking", id)
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", b.ID).
		Order("assigned_at ASC").
		Find(&b.Technicians).Error; err != nil {
		return nil, fmt.Errorf("load technicians: %w", err)
	}
	return &b, nil
}

// FindAll returns a page of bookings and the total count
func (r *GormBookingRepository) FindAll(ctx context.Context, filter booking.Filter) ([]booking.Booking, int64, error) {
	var total int64
	if err := r.applyFilter(r.live(ctx).Model(&booking.Booking{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var bookings []booking.Booking
	err := r.applyFilter(r.live(ctx), filter).
		Preload("Technicians", func(db *gorm.DB) *gorm.DB { return db.Order("assigned_at ASC") }).
		Order(bookingSort.clause(filter.OrderBy, filter.OrderDir)).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(pageSize).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *GormBookingRepository) applyFilter(query *gorm.DB, filter booking.Filter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VariantID != nil {
		query = query.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// CountByStatus counts live bookings per status, optionally for one customer
func (r *GormBookingRepository) CountByStatus(ctx context.Context, customerID *uuid.UUID) (map[booking.Status]int64, error) {
	type row struct {
		Status booking.Status
		Count  int64
	}

	query := r.live(ctx).Model(&booking.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[booking.Status]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// Create persists a new booking with its assignments
func (r *GormBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// SaveWithLock updates the booking if nobody else changed it since it was
// read, then replaces the technician assignments.
func (r *GormBookingRepository) SaveWithLock(ctx context.Context, b *booking.Booking) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&booking.Booking{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", b.ID, b.Version).
		Updates(map[string]any{
			"quantity":       b.Quantity,
			"status":         b.Status,
			"price_type":     b.PriceType,
			"unit_price":     b.UnitPrice,
			"preferred_date": b.PreferredDate,
			"preferred_time": b.PreferredTime,
			"address":        b.Address,
			"description":    b.Description,
			"stock_deducted": b.StockDeducted,
			"version":        b.Version + 1,
			"updated_at":     b.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	b.IncrementVersion()

	if err := db.Where("booking_id = ?", b.ID).Delete(&booking.TechnicianAssignment{}).Error; err != nil {
		return fmt.Errorf("clear technicians: %w", err)
	}
	if len(b.Technicians) > 0 {
		if err := db.Create(&b.Technicians).Error; err != nil {
			return fmt.Errorf("assign technicians: %w", err)
		}
	}
	return nil
}

// SoftDelete stamps deleted_at. Assignments stay for audit.
func (r *GormBookingRepository) SoftDelete(ctx context.Context, b *booking.Booking) error {
	deletedAt := time.Now()
	if b.DeletedAt != nil {
		deletedAt = *b.DeletedAt
	}
	result := r.db.WithContext(ctx).Model(&booking.Booking{}).
		Where("id = ? AND version = ? AND deleted_at IS NULL", b.ID, b.Version).
		Updates(map[string]any{
			"deleted_at":     deletedAt,
			"stock_deducted": b.StockDeducted,
			"version":        b.Version + 1,
			"updated_at":     deletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	b.IncrementVersion()
	b.DeletedAt = &deletedAt
	return nil
}

func (r *GormBookingRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("deleted_at IS NULL")
}

// Ensure GormBookingRepository implements booking.Repository
var _ booking.Repository = (*GormBookingRepository)(nil)
