package identity

import (
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
)

// Role is the coarse capability class of an account
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleTechnician:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Principal is the authenticated caller of a core operation. It is passed
// explicitly into every call instead of being looked up from ambient state.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// NewPrincipal creates a principal
func NewPrincipal(userID uuid.UUID, role Role) Principal {
	return Principal{UserID: userID, Role: role}
}

// IsAdmin returns true for administrators
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsAuthenticated returns true when the principal names a user with a known role
func (p Principal) IsAuthenticated() bool {
	return p.UserID != uuid.Nil && p.Role.IsValid()
}

// RequireRole returns ErrForbidden unless the principal holds one of roles
func (p Principal) RequireRole(roles ...Role) error {
	if !p.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return shared.ErrForbidden
}
