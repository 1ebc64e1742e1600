package transaction

import (
	"context"
	"sync"

	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
)

// NoOpScope is a scope that doesn't actually use transactions.
// This is useful for testing with in-memory or mocked repositories.
type NoOpScope struct {
	StockRecordRepo inventory.StockRecordRepository
	WarehouseRepo   partner.WarehouseRepository
	ProductRepo     catalog.ProductRepository
	VariantRepo     catalog.VariantRepository
	BookingRepo     booking.Repository
	UserRepo        identity.UserRepository
	Recorder        EventRecorder
}

// Execute runs fn directly with the configured repositories
func (s *NoOpScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// Isolate runs fn directly; there is nothing to roll back
func (s *NoOpScope) Isolate(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

func (s *NoOpScope) StockRecords() inventory.StockRecordRepository { return s.StockRecordRepo }
func (s *NoOpScope) Warehouses() partner.WarehouseRepository       { return s.WarehouseRepo }
func (s *NoOpScope) Products() catalog.ProductRepository           { return s.ProductRepo }
func (s *NoOpScope) Variants() catalog.VariantRepository           { return s.VariantRepo }
func (s *NoOpScope) Bookings() booking.Repository                  { return s.BookingRepo }
func (s *NoOpScope) Users() identity.UserRepository                { return s.UserRepo }

// Events returns the configured recorder, discarding events when none is set
func (s *NoOpScope) Events() EventRecorder {
	if s.Recorder == nil {
		return DiscardEvents{}
	}
	return s.Recorder
}

// DiscardEvents drops every recorded event
type DiscardEvents struct{}

// Record does nothing
func (DiscardEvents) Record(context.Context, ...shared.DomainEvent) error { return nil }

// MemoryEventRecorder keeps recorded events in memory
type MemoryEventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Record appends events
func (r *MemoryEventRecorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of the recorded events
func (r *MemoryEventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the event types in recording order
func (r *MemoryEventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.EventType()
	}
	return types
}

var (
	_ Scope         = (*NoOpScope)(nil)
	_ Repositories  = (*NoOpScope)(nil)
	_ EventRecorder = (*MemoryEventRecorder)(nil)
)
