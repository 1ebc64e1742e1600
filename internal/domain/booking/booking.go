package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a booking
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every booking status in lifecycle order
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that accept no further changes
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Staying in the same status is not a transition.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusInProgress || target == StatusCompleted || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// PriceType selects whether installation is billed with the unit price
type PriceType string

const (
	PriceTypeFreeInstall PriceType = "free_install"
	PriceTypeWithInstall PriceType = "with_install"
)

// IsValid checks if the price type is known
func (p PriceType) IsValid() bool {
	return p == PriceTypeFreeInstall || p == PriceTypeWithInstall
}

// IncludesInstallation reports whether the installation fee is charged
func (p PriceType) IncludesInstallation() bool {
	return p == PriceTypeWithInstall
}

// timeLayout is the accepted preferred time format
const timeLayout = "15:04"

// Schedule is the customer's preferred service slot
type Schedule struct {
	Date time.Time
	Time string
}

// NewSchedule validates a preferred date and "HH:MM" time
func NewSchedule(date time.Time, at string) (Schedule, error) {
	if date.IsZero() {
		return Schedule{}, shared.NewValidationError("Preferred date is required")
	}
	at = strings.TrimSpace(at)
	if at == "" {
		return Schedule{}, shared.NewValidationError("Preferred time is required")
	}
	if _, err := time.Parse(timeLayout, at); err != nil {
		return Schedule{}, shared.NewValidationError("Preferred time must use HH:MM format")
	}
	y, m, d := date.Date()
	return Schedule{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Time: at}, nil
}

// TechnicianAssignment links a technician account to a booking
type TechnicianAssignment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_technician,priority:1"`
	TechnicianID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_booking_technician,priority:2;index"`
	AssignedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TechnicianAssignment) TableName() string {
	return "booking_technicians"
}

// Booking is a customer's request for a quantity of a variant, fulfilled by
// assigned technicians. StockDeducted records that the quantity has been
// taken from the ledger, so deduction happens exactly once.
type Booking struct {
	shared.BaseAggregateRoot
	CustomerID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	VariantID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Quantity      int64                  `gorm:"not null"`
	Status        Status                 `gorm:"type:varchar(20);not null;default:'pending';index"`
	PriceType     PriceType              `gorm:"type:varchar(20);not null;default:'free_install'"`
	UnitPrice     decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	PreferredDate time.Time              `gorm:"type:date;not null"`
	PreferredTime string                 `gorm:"type:varchar(5);not null"`
	Address       string                 `gorm:"type:text;not null"`
	Description   string                 `gorm:"type:text"`
	StockDeducted bool                   `gorm:"not null;default:false"`
	Technicians   []TechnicianAssignment `gorm:"foreignKey:BookingID;references:ID"`
	DeletedAt     *time.Time             `gorm:"index"`
}

// TableName returns the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a pending booking. Creation never touches stock.
func NewBooking(customerID, variantID uuid.UUID, quantity int64, priceType PriceType, unitPrice decimal.Decimal, schedule Schedule, address, description string) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer ID is required")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("Variant ID is required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if priceType == "" {
		priceType = PriceTypeFreeInstall
	}
	if !priceType.IsValid() {
		return nil, shared.NewValidationError("Invalid price type: %s", priceType)
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit price cannot be negative")
	}
	if schedule.Date.IsZero() || schedule.Time == "" {
		return nil, shared.NewValidationError("Preferred date and time are required")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, shared.NewValidationError("Address is required")
	}

	b := &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		VariantID:         variantID,
		Quantity:          quantity,
		Status:            StatusPending,
		PriceType:         priceType,
		UnitPrice:         unitPrice,
		PreferredDate:     schedule.Date,
		PreferredTime:     schedule.Time,
		Address:           address,
		Description:       strings.TrimSpace(description),
		Technicians:       make([]TechnicianAssignment, 0),
	}
	b.AddDomainEvent(NewBookingCreatedEvent(b))
	return b, nil
}

// TotalAmount returns unit price times quantity
func (b *Booking) TotalAmount() decimal.Decimal {
	return b.UnitPrice.Mul(decimal.NewFromInt(b.Quantity))
}

// HoldsStock reports whether the booking currently owns deducted ledger stock
func (b *Booking) HoldsStock() bool {
	return b.StockDeducted
}

// IsOwnedBy reports whether the booking belongs to the given customer
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.CustomerID == customerID
}

// ChangeQuantity sets a new quantity and returns the signed delta. The
// caller settles the delta with the ledger when the booking holds stock.
func (b *Booking) ChangeQuantity(quantity int64) (int64, error) {
	if b.Status.IsTerminal() {
		return 0, shared.NewDomainError(shared.CodeInvalidState, "Cannot change quantity of a "+b.Status.String()+" booking")
	}
	if err := validateQuantity(quantity); err != nil {
		return 0, err
	}
	delta := quantity - b.Quantity
	if delta == 0 {
		return 0, nil
	}
	old := b.Quantity
	b.Quantity = quantity
	b.touch()
	b.AddDomainEvent(NewBookingQuantityChangedEvent(b, old))
	return delta, nil
}

// TransitionTo moves the booking to the target status. Same-status requests
// are accepted and change nothing; the returned bool is true only when the
// status actually changed.
func (b *Booking) TransitionTo(target Status) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewValidationError("Invalid booking status: %s", target)
	}
	if target == b.Status {
		return false, nil
	}
	if !b.Status.CanTransitionTo(target) {
		return false, shared.NewDomainError(shared.CodeInvalidState,
			"Cannot change booking status from "+b.Status.String()+" to "+target.String())
	}
	from := b.Status
	b.Status = target
	b.touch()
	b.AddDomainEvent(NewBookingStatusChangedEvent(b, from))
	return true, nil
}

// MarkStockDeducted records that the booking quantity was taken from the ledger
func (b *Booking) MarkStockDeducted() error {
	if b.StockDeducted {
		return shared.NewDomainError(shared.CodeInvalidState, "Booking stock was already deducted")
	}
	b.StockDeducted = true
	return nil
}

// MarkStockRestored records that the booking quantity was returned to the ledger
func (b *Booking) MarkStockRestored() {
	b.StockDeducted = false
}

// Reschedule changes the preferred slot
func (b *Booking) Reschedule(schedule Schedule) error {
	if err := b.ensureEditable(); err != nil {
		return err
	}
	b.PreferredDate = schedule.Date
	b.PreferredTime = schedule.Time
	b.touch()
	return nil
}

// ChangePriceType switches billing mode, repricing from the given unit price
func (b *Booking) ChangePriceType(priceType PriceType, unitPrice decimal.Decimal) error {
	if err := b.ensureEditable(); err != nil {
		return err
	}
	if !priceType.IsValid() {
		return shared.NewValidationError("Invalid price type: %s", priceType)
	}
	b.PriceType = priceType
	b.UnitPrice = unitPrice
	b.touch()
	return nil
}

// UpdateDescription replaces the free-text description
func (b *Booking) UpdateDescription(description string) error {
	if err := b.ensureEditable(); err != nil {
		return err
	}
	b.Description = strings.TrimSpace(description)
	b.touch()
	return nil
}

// AssignTechnicians replaces the technician assignments. Duplicates are dropped.
func (b *Booking) AssignTechnicians(technicianIDs []uuid.UUID) error {
	if err := b.ensureEditable(); err != nil {
		return err
	}
	now := time.Now()
	seen := make(map[uuid.UUID]struct{}, len(technicianIDs))
	assignments := make([]TechnicianAssignment, 0, len(technicianIDs))
	for _, id := range technicianIDs {
		if id == uuid.Nil {
			return shared.NewValidationError("Technician ID cannot be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		assignments = append(assignments, TechnicianAssignment{
			ID:           uuid.New(),
			BookingID:    b.ID,
			TechnicianID: id,
			AssignedAt:   now,
		})
	}
	b.Technicians = assignments
	b.touch()
	return nil
}

// TechnicianIDs returns the IDs of assigned technicians
func (b *Booking) TechnicianIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Technicians))
	for i, t := range b.Technicians {
		ids[i] = t.TechnicianID
	}
	return ids
}

// CanBeCancelledByCustomer reports whether the owner may still cancel
func (b *Booking) CanBeCancelledByCustomer() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// MarkDeleted flags the booking as removed
func (b *Booking) MarkDeleted() {
	now := time.Now()
	b.DeletedAt = &now
	b.AddDomainEvent(NewBookingDeletedEvent(b))
}

func (b *Booking) ensureEditable() error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot modify a "+b.Status.String()+" booking")
	}
	return nil
}

// touch bumps UpdatedAt. The version is advanced by the repository on save.
func (b *Booking) touch() {
	b.UpdatedAt = time.Now()
}

func validateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewValidationError("Quantity must be a positive integer")
	}
	return nil
}
