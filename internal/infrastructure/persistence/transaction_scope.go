package persistence

import (
	"context"

	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/telemetry"
	"gorm.io/gorm"
)

// OutboxWriter stores domain events through the given transaction
type OutboxWriter interface {
	PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error
}

// GormTransactionScope implements transaction.Scope using GORM transactions.
// Every repository handed to fn shares one *gorm.DB transaction, and events
// recorded through it land in the outbox in that same transaction.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox OutboxWriter
}

// NewGormTransactionScope creates a new GormTransactionScope. A nil outbox
// discards recorded events.
func NewGormTransactionScope(db *gorm.DB, outbox OutboxWriter) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back and the error is
// returned unchanged. Otherwise the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "db.transaction")
	defer func() { telemetry.EndSpan(span, err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox OutboxWriter
}

func (r *gormTransactionalRepositories) StockRecords() inventory.StockRecordRepository {
	return NewGormStockRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) Warehouses() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Variants() catalog.VariantRepository {
	return NewGormVariantRepository(r.tx)
}

func (r *gormTransactionalRepositories) Bookings() booking.Repository {
	return NewGormBookingRepository(r.tx)
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Events returns a recorder that writes to the outbox inside this transaction
func (r *gormTransactionalRepositories) Events() transaction.EventRecorder {
	return &outboxRecorder{tx: r.tx, outbox: r.outbox}
}

// Isolate runs fn in a savepoint (GORM nested transaction). A failure rolls
// back to the savepoint only; the outer transaction stays usable.
func (r *gormTransactionalRepositories) Isolate(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: sp, outbox: r.outbox})
	})
}

// outboxRecorder adapts OutboxWriter to transaction.EventRecorder
type outboxRecorder struct {
	tx     *gorm.DB
	outbox OutboxWriter
}

func (r *outboxRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	return r.outbox.PublishWithTx(ctx, r.tx, events...)
}

var (
	_ transaction.Scope        = (*GormTransactionScope)(nil)
	_ transaction.Repositories = (*gormTransactionalRepositories)(nil)
)
