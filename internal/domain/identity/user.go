package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/servicebook/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterPattern   = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// User is an account that can sign in: an administrator, a customer who
// books services, or a technician who fulfils them.
type User struct {
	shared.BaseAggregateRoot
	Username     string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string     `gorm:"type:varchar(200);index"`
	DisplayName  string     `gorm:"type:varchar(200)"`
	Phone        string     `gorm:"type:varchar(50)"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         Role       `gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user with the given role
func NewUser(username, password string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("Invalid role: %s", role)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      passwordHash,
		Role:              role,
		Status:            UserStatusActive,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// SetEmail sets the user's email
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	u.Email = strings.ToLower(email)
	u.UpdatedAt = time.Now()
	return nil
}

// SetProfile sets display name and phone
func (u *User) SetProfile(displayName, phone string) error {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > 200 {
		return shared.NewValidationError("Display name cannot exceed 200 characters")
	}
	u.DisplayName = displayName
	u.Phone = strings.TrimSpace(phone)
	u.UpdatedAt = time.Now()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// CanLogin returns true if user can login
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// Principal returns the principal that acts on behalf of this user
func (u *User) Principal() Principal {
	return NewPrincipal(u.ID, u.Role)
}

// GetDisplayNameOrUsername returns display name if set, otherwise username
func (u *User) GetDisplayNameOrUsername() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewValidationError("Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewValidationError("Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewValidationError("Username cannot exceed 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewValidationError("Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("Password cannot exceed 72 characters")
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return shared.NewValidationError("Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
