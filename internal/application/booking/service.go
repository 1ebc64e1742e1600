package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appinv "github.com/servicebook/backend/internal/application/inventory"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/booking"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Metrics receives booking lifecycle measurements
type Metrics interface {
	RecordBookingCreated(ctx context.Context)
	RecordBookingConfirmed(ctx context.Context)
	RecordInsufficientStock(ctx context.Context, variantID uuid.UUID)
	RecordStockRestored(ctx context.Context, units int64)
	RecordRestorationFailed(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordBookingCreated(context.Context)               {}
func (noopMetrics) RecordBookingConfirmed(context.Context)             {}
func (noopMetrics) RecordInsufficientStock(context.Context, uuid.UUID) {}
func (noopMetrics) RecordStockRestored(context.Context, int64)         {}
func (noopMetrics) RecordRestorationFailed(context.Context)            {}

// Config holds booking engine policy
type Config struct {
	// StrictRestore makes deletion of a stock-holding booking fail when the
	// stock cannot be restored. When false the booking is deleted anyway and
	// the failure is logged and recorded as an event.
	StrictRestore     bool
	LowStockThreshold int64
}

// DefaultConfig returns the default booking policy
func DefaultConfig() Config {
	return Config{StrictRestore: true}
}

// Service owns the booking state machine and keeps the ledger in step with
// it. Every mutating call runs in exactly one atomic scope.
type Service struct {
	scope       transaction.Scope
	bookingRepo booking.Repository
	variantRepo catalog.VariantRepository
	userRepo    identity.UserRepository
	cfg         Config
	metrics     Metrics
	logger      *zap.Logger
}

// NewService creates a new booking Service
func NewService(
	scope transaction.Scope,
	bookingRepo booking.Repository,
	variantRepo catalog.VariantRepository,
	userRepo identity.UserRepository,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		scope:       scope,
		bookingRepo: bookingRepo,
		variantRepo: variantRepo,
		userRepo:    userRepo,
		cfg:         cfg,
		metrics:     noopMetrics{},
		logger:      log,
	}
}

// SetMetrics sets the metrics sink
func (s *Service) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Create creates a pending booking. No stock is touched.
func (s *Service) Create(ctx context.Context, principal identity.Principal, req CreateBookingRequest) (*BookingResponse, error) {
	if err := principal.RequireRole(identity.RoleCustomer, identity.RoleAdmin); err != nil {
		return nil, err
	}

	customerID := principal.UserID
	if req.CustomerID != nil && *req.CustomerID != principal.UserID {
		if !principal.IsAdmin() {
			return nil, shared.NewDomainError(shared.CodeForbidden, "Customers can only book for themselves")
		}
		customer, err := s.userRepo.FindByID(ctx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer.Role != identity.RoleCustomer {
			return nil, shared.NewValidationError("User %s is not a customer", customer.ID)
		}
		customerID = customer.ID
	}

	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("Quantity must be a positive integer")
	}
	schedule, err := parseSchedule(req.PreferredDate, req.PreferredTime)
	if err != nil {
		return nil, err
	}
	priceType := booking.PriceType(req.PriceType)
	if priceType == "" {
		priceType = booking.PriceTypeFreeInstall
	}
	if !priceType.IsValid() {
		return nil, shared.NewValidationError("Invalid price type: %s", req.PriceType)
	}

	variant, err := s.findBookableVariant(ctx, s.variantRepo, req.VariantID)
	if err != nil {
		return nil, err
	}

	b, err := booking.NewBooking(customerID, variant.ID, req.Quantity, priceType,
		variant.UnitPrice(priceType.IncludesInstallation()), schedule, req.Address, req.Description)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Bookings().Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return repos.Events().Record(ctx, b.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	b.ClearDomainEvents()
	s.metrics.RecordBookingCreated(ctx)

	s.log(ctx).Info("Booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("variant_id", b.VariantID.String()),
		zap.Int64("quantity", b.Quantity))

	resp := ToBookingResponse(b)
	return &resp, nil
}

// ConfirmOrUpdate applies a partial update. Quantity is settled first, then
// the status transition, then the remaining fields. Any failure, including
// insufficient inventory, rolls the whole update back.
func (s *Service) ConfirmOrUpdate(ctx context.Context, principal identity.Principal, id uuid.UUID, req UpdateBookingRequest) (*BookingResponse, error) {
	if err := principal.RequireRole(identity.RoleAdmin); err != nil {
		return nil, err
	}
	patch, err := s.preparePatch(ctx, req)
	if err != nil {
		return nil, err
	}

	var (
		b         *booking.Booking
		confirmed bool
		restored  int64
	)
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		b, err = repos.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		ledger := appinv.NewLedger(repos, s.cfg.LowStockThreshold)

		if patch.quantity != nil {
			delta, err := b.ChangeQuantity(*patch.quantity)
			if err != nil {
				return err
			}
			if delta != 0 && b.HoldsStock() {
				if delta > 0 {
					if err := s.deduct(ctx, ledger, b.VariantID, delta); err != nil {
						return err
					}
				} else {
					if _, err := ledger.RestoreToDefault(ctx, b.VariantID, -delta); err != nil {
						return fmt.Errorf("restore quantity delta: %w", err)
					}
					restored += -delta
				}
			}
		}

		if patch.status != nil {
			effect, err := s.transition(ctx, ledger, b, *patch.status)
			if err != nil {
				return err
			}
			confirmed = effect.confirmed
			restored += effect.restored
		}

		if patch.priceType != nil && *patch.priceType != b.PriceType {
			variant, err := repos.Variants().FindByID(ctx, b.VariantID)
			if err != nil {
				return err
			}
			if err := b.ChangePriceType(*patch.priceType, variant.UnitPrice(patch.priceType.IncludesInstallation())); err != nil {
				return err
			}
		}
		if patch.schedule != nil {
			if err := b.Reschedule(*patch.schedule); err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := b.UpdateDescription(*req.Description); err != nil {
				return err
			}
		}
		if req.Technicians != nil {
			if err := b.AssignTechnicians(*req.Technicians); err != nil {
				return err
			}
		}

		if err := repos.Bookings().SaveWithLock(ctx, b); err != nil {
			return err
		}
		return repos.Events().Record(ctx, b.GetDomainEvents()...)
	})
	if err != nil {
		if shared.HasCode(err, shared.CodeInsufficientStock) {
			s.log(ctx).Info("Booking update rejected: insufficient inventory",
				zap.String("booking_id", id.String()))
		}
		return nil, err
	}
	b.ClearDomainEvents()

	if confirmed {
		s.metrics.RecordBookingConfirmed(ctx)
	}
	if restored > 0 {
		s.metrics.RecordStockRestored(ctx, restored)
	}

	s.log(ctx).Info("Booking updated",
		zap.String("booking_id", b.ID.String()),
		zap.String("status", b.Status.String()),
		zap.Int64("quantity", b.Quantity),
		zap.Bool("stock_deducted", b.StockDeducted))

	resp := ToBookingResponse(b)
	return &resp, nil
}

// Delete removes a booking. A confirmed or in-progress booking that holds
// stock has its quantity returned to the default warehouse first.
func (s *Service) Delete(ctx context.Context, principal identity.Principal, id uuid.UUID) error {
	if err := principal.RequireRole(identity.RoleAdmin); err != nil {
		return err
	}

	var (
		restored      int64
		restoreFailed bool
	)
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		b, err := repos.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		holds := (b.Status == booking.StatusConfirmed || b.Status == booking.StatusInProgress) && b.HoldsStock()
		if holds {
			if s.cfg.StrictRestore {
				if _, err := appinv.NewLedger(repos, 0).RestoreToDefault(ctx, b.VariantID, b.Quantity); err != nil {
					return fmt.Errorf("restore stock for booking %s: %w", b.ID, err)
				}
				b.MarkStockRestored()
				restored = b.Quantity
			} else {
				var warehouseID uuid.UUID
				err := repos.Isolate(ctx, func(inner transaction.Repositories) error {
					var err error
					warehouseID, err = appinv.NewLedger(inner, 0).RestoreToDefault(ctx, b.VariantID, b.Quantity)
					return err
				})
				if err != nil {
					restoreFailed = true
					s.log(ctx).Warn("Inconsistency: stock restoration failed, deleting booking anyway",
						zap.String("booking_id", b.ID.String()),
						zap.String("variant_id", b.VariantID.String()),
						zap.String("warehouse_id", warehouseID.String()),
						zap.Int64("quantity", b.Quantity),
						zap.Error(err))
					failed := inventory.NewStockRestorationFailedEvent(b.ID, b.VariantID, warehouseID, b.Quantity, err.Error())
					if err := repos.Events().Record(ctx, failed); err != nil {
						return err
					}
				} else {
					b.MarkStockRestored()
					restored = b.Quantity
				}
			}
		}

		b.MarkDeleted()
		if err := repos.Bookings().SoftDelete(ctx, b); err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		return repos.Events().Record(ctx, b.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}

	if restored > 0 {
		s.metrics.RecordStockRestored(ctx, restored)
	}
	if restoreFailed {
		s.metrics.RecordRestorationFailed(ctx)
	}
	s.log(ctx).Info("Booking deleted",
		zap.String("booking_id", id.String()),
		zap.Int64("restored", restored))
	return nil
}

// CancelOwn lets a customer cancel their own pending or confirmed booking
func (s *Service) CancelOwn(ctx context.Context, principal identity.Principal, id uuid.UUID) (*BookingResponse, error) {
	if err := principal.RequireRole(identity.RoleCustomer, identity.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		b        *booking.Booking
		restored int64
	)
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		var err error
		b, err = repos.Bookings().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(principal, b) {
			return shared.NewNotFoundError("Booking", id)
		}
		if !b.CanBeCancelledByCustomer() {
			return shared.NewDomainError(shared.CodeInvalidState, "Only pending or confirmed bookings can be cancelled")
		}
		effect, err := s.transition(ctx, appinv.NewLedger(repos, 0), b, booking.StatusCancelled)
		if err != nil {
			return err
		}
		restored = effect.restored
		if err := repos.Bookings().SaveWithLock(ctx, b); err != nil {
			return err
		}
		return repos.Events().Record(ctx, b.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	b.ClearDomainEvents()
	if restored > 0 {
		s.metrics.RecordStockRestored(ctx, restored)
	}

	resp := ToBookingResponse(b)
	return &resp, nil
}

// Get returns one booking. Customers see only their own bookings and
// technicians only those they are assigned to.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id uuid.UUID) (*BookingResponse, error) {
	if !principal.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	b, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(principal, b) {
		return nil, shared.NewNotFoundError("Booking", id)
	}
	resp := ToBookingResponse(b)
	return &resp, nil
}

// ListMine lists the caller's own bookings
func (s *Service) ListMine(ctx context.Context, principal identity.Principal, req ListBookingsRequest) (*shared.Paginated[BookingResponse], error) {
	if err := principal.RequireRole(identity.RoleCustomer, identity.RoleAdmin); err != nil {
		return nil, err
	}
	filter, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	owner := principal.UserID
	filter.CustomerID = &owner
	return s.list(ctx, filter)
}

// ListAll lists every booking with optional status, customer and variant filters
func (s *Service) ListAll(ctx context.Context, principal identity.Principal, req ListBookingsRequest) (*shared.Paginated[BookingResponse], error) {
	if err := principal.RequireRole(identity.RoleAdmin); err != nil {
		return nil, err
	}
	filter, err := toFilter(req)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

// Stats counts bookings per status. Customers always get their own counts;
// admins may narrow to one customer or pass nil for the whole system.
func (s *Service) Stats(ctx context.Context, principal identity.Principal, customerID *uuid.UUID) (*StatsResponse, error) {
	if err := principal.RequireRole(identity.RoleCustomer, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		own := principal.UserID
		customerID = &own
	}

	counts, err := s.bookingRepo.CountByStatus(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resp := &StatsResponse{
		ByStatus:   make(map[string]int64, len(booking.AllStatuses)),
		CustomerID: customerID,
	}
	for _, st := range booking.AllStatuses {
		n := counts[st]
		resp.ByStatus[st.String()] = n
		resp.Total += n
	}
	resp.Active = counts[booking.StatusConfirmed] + counts[booking.StatusInProgress]
	return resp, nil
}

// ListTechnicians lists the active technician accounts
func (s *Service) ListTechnicians(ctx context.Context) ([]TechnicianResponse, error) {
	users, err := s.userRepo.FindByRole(ctx, identity.RoleTechnician)
	if err != nil {
		return nil, err
	}
	out := make([]TechnicianResponse, len(users))
	for i := range users {
		out[i] = ToTechnicianResponse(&users[i])
	}
	return out, nil
}

// transitionEffect reports the ledger side effects of a status change
type transitionEffect struct {
	confirmed bool
	restored  int64
}

// transition moves b to target and settles the ledger: entering confirmed
// deducts the quantity once, cancelling a stock-holding booking restores it.
func (s *Service) transition(ctx context.Context, ledger *appinv.Ledger, b *booking.Booking, target booking.Status) (transitionEffect, error) {
	var effect transitionEffect
	changed, err := b.TransitionTo(target)
	if err != nil || !changed {
		return effect, err
	}

	switch target {
	case booking.StatusConfirmed:
		if !b.HoldsStock() {
			if err := s.deduct(ctx, ledger, b.VariantID, b.Quantity); err != nil {
				return effect, err
			}
			if err := b.MarkStockDeducted(); err != nil {
				return effect, err
			}
		}
		effect.confirmed = true
	case booking.StatusCancelled:
		if b.HoldsStock() {
			if _, err := ledger.RestoreToDefault(ctx, b.VariantID, b.Quantity); err != nil {
				return effect, fmt.Errorf("restore stock on cancel: %w", err)
			}
			b.MarkStockRestored()
			effect.restored = b.Quantity
		}
	}
	return effect, nil
}

// deduct reduces stock or fails with INSUFFICIENT_STOCK
func (s *Service) deduct(ctx context.Context, ledger *appinv.Ledger, variantID uuid.UUID, quantity int64) error {
	ok, err := ledger.ReduceStock(ctx, variantID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.RecordInsufficientStock(ctx, variantID)
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient inventory for variant %s: %d requested", variantID, quantity))
	}
	return nil
}

// bookingPatch is a validated UpdateBookingRequest
type bookingPatch struct {
	status    *booking.Status
	quantity  *int64
	priceType *booking.PriceType
	schedule  *booking.Schedule
}

// preparePatch validates the request before any scope is opened
func (s *Service) preparePatch(ctx context.Context, req UpdateBookingRequest) (bookingPatch, error) {
	var p bookingPatch
	if req.Status != nil {
		st := booking.Status(*req.Status)
		if !st.IsValid() {
			return p, shared.NewValidationError("Invalid booking status: %s", *req.Status)
		}
		p.status = &st
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return p, shared.NewValidationError("Quantity must be a positive integer")
		}
		p.quantity = req.Quantity
	}
	if req.PriceType != nil {
		pt := booking.PriceType(*req.PriceType)
		if !pt.IsValid() {
			return p, shared.NewValidationError("Invalid price type: %s", *req.PriceType)
		}
		p.priceType = &pt
	}
	if req.PreferredDate != nil || req.PreferredTime != nil {
		if req.PreferredDate == nil || req.PreferredTime == nil {
			return p, shared.NewValidationError("Preferred date and time must be changed together")
		}
		schedule, err := parseSchedule(*req.PreferredDate, *req.PreferredTime)
		if err != nil {
			return p, err
		}
		p.schedule = &schedule
	}
	if req.Technicians != nil && len(*req.Technicians) > 0 {
		unique := make(map[uuid.UUID]struct{}, len(*req.Technicians))
		ids := make([]uuid.UUID, 0, len(*req.Technicians))
		for _, id := range *req.Technicians {
			if _, dup := unique[id]; !dup {
				unique[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		n, err := s.userRepo.CountByIDsAndRole(ctx, ids, identity.RoleTechnician)
		if err != nil {
			return p, err
		}
		if n != int64(len(ids)) {
			return p, shared.NewValidationError("Every assigned user must be an active technician")
		}
	}
	return p, nil
}

func (s *Service) findBookableVariant(ctx context.Context, repo catalog.VariantRepository, id uuid.UUID) (*catalog.Variant, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("Variant ID is required")
	}
	variant, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("Variant", id)
		}
		return nil, err
	}
	if !variant.IsActive() {
		return nil, shared.NewValidationError("Variant %s is not available for booking", id)
	}
	return variant, nil
}

func (s *Service) list(ctx context.Context, filter booking.Filter) (*shared.Paginated[BookingResponse], error) {
	items, total, err := s.bookingRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToBookingResponses(items), total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// canManage allows admins and the booking's own customer
func canManage(p identity.Principal, b *booking.Booking) bool {
	return p.IsAdmin() || (p.IsAuthenticated() && b.IsOwnedBy(p.UserID))
}

func canView(p identity.Principal, b *booking.Booking) bool {
	if canManage(p, b) {
		return true
	}
	if p.Role == identity.RoleTechnician {
		for _, id := range b.TechnicianIDs() {
			if id == p.UserID {
				return true
			}
		}
	}
	return false
}

func parseSchedule(date, at string) (booking.Schedule, error) {
	if date == "" {
		return booking.Schedule{}, shared.NewValidationError("Preferred date is required")
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return booking.Schedule{}, shared.NewValidationError("Preferred date must use YYYY-MM-DD format")
	}
	return booking.NewSchedule(d, at)
}

func toFilter(req ListBookingsRequest) (booking.Filter, error) {
	f := booking.Filter{Filter: shared.DefaultFilter()}
	if req.Page > 0 {
		f.Page = req.Page
	}
	if req.PageSize > 0 {
		f.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		f.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		f.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		st := booking.Status(req.Status)
		if !st.IsValid() {
			return f, shared.NewValidationError("Invalid booking status: %s", req.Status)
		}
		f.Status = &st
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return f, shared.NewValidationError("Invalid customer_id")
		}
		f.CustomerID = &id
	}
	if req.VariantID != "" {
		id, err := uuid.Parse(req.VariantID)
		if err != nil {
			return f, shared.NewValidationError("Invalid variant_id")
		}
		f.VariantID = &id
	}
	return f, nil
}
