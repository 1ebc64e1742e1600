package identity

import (
	"context"
	"errors"

	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")

// AuthService handles authentication operations
type AuthService struct {
	scope       transaction.Scope
	userRepo    identity.UserRepository
	jwtService  *auth.JWTService
	revocations auth.RevocationList
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service. revocations may be
// nil, in which case logout only succeeds client-side.
func NewAuthService(
	scope transaction.Scope,
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.RevocationList,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		scope:       scope,
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		logger:      log,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := s.log(ctx)

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Warn("Login for unknown user", zap.String("username", input.Username))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		log.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, errInvalidCredentials
	}

	// Checked after the password so a deactivated account is not disclosed to guessers.
	if !user.CanLogin() {
		log.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError(shared.CodeForbidden, "Account has been deactivated")
	}

	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		log.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login
		log.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))

	return &LoginResult{TokenResult: toTokenResult(pair), User: ToUserInfo(user)}, nil
}

// Register creates a customer account. The account row and its
// UserRegistered event commit together.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserInfo, error) {
	user, err := identity.NewUser(input.Username, input.Password, identity.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(input.Email); err != nil {
		return nil, err
	}
	if err := user.SetProfile(input.DisplayName, input.Phone); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.Users().ExistsByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
		}
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		return repos.Events().Record(ctx, user.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	user.ClearDomainEvents()

	s.log(ctx).Info("Customer registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	info := ToUserInfo(user)
	return &info, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	log := s.log(ctx)

	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		log.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}

	revoked, err := auth.IsClaimsRevoked(ctx, s.revocations, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		log.Warn("Revoked refresh token presented", zap.String("user_id", claims.UserID))
		return nil, tokenError(auth.ErrTokenBlacklisted)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, tokenError(auth.ErrInvalidClaims)
		}
		return nil, err
	}
	if !user.CanLogin() {
		log.Warn("Token refresh for deactivated account", zap.String("user_id", user.ID.String()))
		return nil, shared.NewDomainError(shared.CodeForbidden, "Account has been deactivated")
	}

	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil {
		if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			log.Error("Failed to revoke rotated refresh token", zap.Error(err))
		}
	}

	log.Info("Token refreshed", zap.String("user_id", user.ID.String()))
	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the caller's tokens
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	log := s.log(ctx)
	if s.revocations == nil {
		log.Info("User logout without revocation store", zap.String("user_id", input.UserID.String()))
		return nil
	}

	if input.AllSessions {
		if err := s.revocations.RevokeUser(ctx, input.UserID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
			return err
		}
		log.Info("User signed out of all sessions", zap.String("user_id", input.UserID.String()))
		return nil
	}

	if input.AccessTokenID != "" {
		if err := s.revocations.Revoke(ctx, input.AccessTokenID, input.AccessTokenTTL); err != nil {
			return err
		}
	}

	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err != nil {
			return tokenError(err)
		}
		if claims.UserID != input.UserID.String() {
			return shared.NewDomainError(shared.CodeForbidden, "Refresh token belongs to another account")
		}
		if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			return err
		}
	}

	log.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the signed-in account
func (s *AuthService) Me(ctx context.Context, principal identity.Principal) (*UserInfo, error) {
	if !principal.IsAuthenticated() {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

// tokenError maps JWT failures to an UNAUTHORIZED domain error
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError(shared.CodeUnauthorized, "Token has expired")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError(shared.CodeUnauthorized, "Token has been revoked")
	default:
		return shared.NewDomainError(shared.CodeUnauthorized, "Invalid token")
	}
}
