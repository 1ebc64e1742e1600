package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"github.com/servicebook/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTPrincipalKey = "jwt_principal"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Revocations is optional; when set, signed-out tokens are rejected
	Revocations auth.RevocationList
	Logger      *zap.Logger
}

// JWTAuth validates the bearer access token and stores the caller's
// identity.Principal on the gin context and the request logger.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			authError(c, log, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			authError(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			authError(c, log, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			authError(c, log, err, "Token validation failed")
			return
		}

		ctx := c.Request.Context()
		revoked, err := auth.IsClaimsRevoked(ctx, cfg.Revocations, claims)
		if err != nil {
			// Fail open: an unreachable revocation store must not lock everyone out
			logger.WithLogger(ctx, log).Error("Failed to check token revocation",
				zap.String("user_id", claims.UserID),
				zap.Error(err))
		} else if revoked {
			authError(c, log, auth.ErrTokenBlacklisted, "Token has been revoked")
			return
		}

		principal, err := claims.Principal()
		if err != nil || !principal.IsAuthenticated() {
			authError(c, log, auth.ErrInvalidClaims, "Token does not name a valid account")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTPrincipalKey, principal)
		c.Request = c.Request.WithContext(logger.WithPrincipal(ctx, claims.UserID, claims.Role.String()))
		principalSpanAttributes(c, claims.UserID, claims.Role.String())

		c.Next()
	}
}

func authError(c *gin.Context, log *zap.Logger, err error, reason string) {
	logger.WithLogger(c.Request.Context(), log).Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		abort(c, dto.ErrCodeTokenExpired, "Token has expired")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		abort(c, dto.ErrCodeTokenRevoked, "Token has been revoked")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid), errors.Is(err, auth.ErrInvalidClaims):
		abort(c, dto.ErrCodeTokenInvalid, "Invalid token")
	default:
		abort(c, dto.ErrCodeUnauthorized, "Authentication required")
	}
}

// RequireRole rejects principals that hold none of roles. It must run after JWTAuth.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abort(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if err := principal.RequireRole(roles...); err != nil {
			abort(c, dto.ErrCodeForbidden, "Insufficient role for this operation")
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the principal stored by JWTAuth
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	v, exists := c.Get(JWTPrincipalKey)
	if !exists {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
