package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
)

// Filter narrows booking listings
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID
	VariantID  *uuid.UUID
	Status     *Status
}

// Repository defines the interface for booking persistence.
// Soft-deleted bookings are invisible to every read.
type Repository interface {
	// FindByID finds a booking with its technician assignments
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate finds a booking and locks its row for the enclosing transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindAll returns a page of bookings and the total count
	FindAll(ctx context.Context, filter Filter) ([]Booking, int64, error)

	// CountByStatus counts bookings per status, optionally for one customer
	CountByStatus(ctx context.Context, customerID *uuid.UUID) (map[Status]int64, error)

	// Create persists a new booking
	Create(ctx context.Context, b *Booking) error

	// SaveWithLock updates a booking if its version is unchanged and advances
	// the version. It returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, b *Booking) error

	// SoftDelete marks the booking as deleted
	SoftDelete(ctx context.Context, b *Booking) error
}
