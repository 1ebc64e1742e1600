package identity

import (
	"github.com/servicebook/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// EventTypeUserRegistered is published when an account is created
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when a user is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Username:        user.Username,
		Role:            user.Role,
	}
}

// EventType returns the event type name
func (e *UserRegisteredEvent) EventType() string {
	return EventTypeUserRegistered
}
