package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/identity"
)

// LoginInput contains login credentials
type LoginInput struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// RegisterInput creates a customer account
type RegisterInput struct {
	Username    string `json:"username" binding:"required,min=3,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	DisplayName string `json:"display_name" binding:"omitempty,max=200"`
	Phone       string `json:"phone" binding:"omitempty,max=50"`
}

// RefreshTokenInput contains the refresh token
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the tokens to revoke. RefreshToken is optional.
type LogoutInput struct {
	AccessTokenID  string        `json:"-"`
	AccessTokenTTL time.Duration `json:"-"`
	RefreshToken   string        `json:"refresh_token"`
	UserID         uuid.UUID     `json:"-"`
	AllSessions    bool          `json:"all_sessions"`
}

// TokenResult is returned by login and refresh
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains tokens and the signed-in account
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID          uuid.UUID     `json:"id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Role        identity.Role `json:"role"`
	LastLoginAt *time.Time    `json:"last_login_at,omitempty"`
}

// ToUserInfo converts a domain user to its public view
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.GetDisplayNameOrUsername(),
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}
