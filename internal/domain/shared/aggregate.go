package shared

// BaseAggregateRoot is embedded by bookings, products, users and warehouses.
// Version backs optimistic locking; events recorded on the aggregate are
// written to the outbox by the transaction that saves it.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`

	pending []DomainEvent `gorm:"-"`
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent queues an event until the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns queued events in the order they were added
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.pending }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }
