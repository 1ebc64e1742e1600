package identity_test

import (
	"context"
	"testing"
	"time"

	appidentity "github.com/servicebook/backend/internal/application/identity"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/config"
	"github.com/servicebook/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const password = "passw0rd1"

type authFixture struct {
	svc      *appidentity.AuthService
	jwt      *auth.JWTService
	users    *persistence.GormUserRepository
	revoked  *auth.MemoryRevocationList
	recorder *transaction.MemoryEventRecorder
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	f := &authFixture{
		users:    persistence.NewGormUserRepository(db),
		revoked:  auth.NewMemoryRevocationList(),
		recorder: &transaction.MemoryEventRecorder{},
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "unit-test-access-secret-32-chars",
			RefreshSecret:          "unit-test-refresh-secret-32-char",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "servicebook-test",
		}),
	}
	scope := &transaction.NoOpScope{UserRepo: f.users, Recorder: f.recorder}
	f.svc = appidentity.NewAuthService(scope, f.users, f.jwt, f.revoked, zap.NewNop())
	return f
}

func (f *authFixture) seed(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, password, role)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	tech := f.seed(t, "tech1", identity.RoleTechnician)

	t.Run("issues tokens carrying the role", func(t *testing.T) {
		res, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "TECH1", Password: password})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, tech.ID, res.User.ID)
		assert.Equal(t, identity.RoleTechnician, res.User.Role)

		claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		principal, err := claims.Principal()
		require.NoError(t, err)
		assert.Equal(t, tech.Principal(), principal)

		stored, err := f.users.FindByID(ctx, tech.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, errPwd := f.svc.Login(ctx, appidentity.LoginInput{Username: "tech1", Password: "wrongpass1"})
		_, errUser := f.svc.Login(ctx, appidentity.LoginInput{Username: "ghost", Password: password})
		require.Error(t, errPwd)
		require.Error(t, errUser)
		assert.True(t, shared.HasCode(errPwd, shared.CodeUnauthorized))
		assert.Equal(t, errPwd.Error(), errUser.Error())
	})

	t.Run("deactivated account", func(t *testing.T) {
		u := f.seed(t, "former", identity.RoleCustomer)
		u.Status = identity.UserStatusDeactivated
		require.NoError(t, f.users.Update(ctx, u))

		_, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "former", Password: password})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	info, err := f.svc.Register(ctx, appidentity.RegisterInput{
		Username:    "Carol",
		Password:    password,
		Email:       "Carol@Example.com",
		DisplayName: "Carol K",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", info.Username)
	assert.Equal(t, "carol@example.com", info.Email)
	assert.Equal(t, identity.RoleCustomer, info.Role)
	assert.Equal(t, []string{identity.EventTypeUserRegistered}, f.recorder.Types())

	_, err = f.svc.Login(ctx, appidentity.LoginInput{Username: "carol", Password: password})
	assert.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := f.svc.Register(ctx, appidentity.RegisterInput{Username: "CAROL", Password: password})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Len(t, f.recorder.Types(), 1)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := f.svc.Register(ctx, appidentity.RegisterInput{Username: "dave", Password: "short"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := f.svc.Register(ctx, appidentity.RegisterInput{Username: "erin", Password: password, Email: "nope"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u := f.seed(t, "alice", identity.RoleCustomer)

	login, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "alice", Password: password})
	require.NoError(t, err)

	t.Run("rotates the refresh token", func(t *testing.T) {
		pair, err := f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: login.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

		_, err = f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: login.RefreshToken})
		assert.True(t, shared.HasCode(err, shared.CodeUnauthorized), "old refresh token is single use")

		_, err = f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: pair.RefreshToken})
		assert.NoError(t, err)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: login.AccessToken})
		assert.True(t, shared.HasCode(err, shared.CodeUnauthorized))
	})

	t.Run("role changes apply on refresh", func(t *testing.T) {
		again, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "alice", Password: password})
		require.NoError(t, err)

		stored, err := f.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		stored.Role = identity.RoleTechnician
		require.NoError(t, f.users.Update(ctx, stored))

		pair, err := f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: again.RefreshToken})
		require.NoError(t, err)
		claims, err := f.jwt.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, identity.RoleTechnician, claims.Role)
	})

	t.Run("deactivated account cannot refresh", func(t *testing.T) {
		again, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "alice", Password: password})
		require.NoError(t, err)

		stored, err := f.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		stored.Status = identity.UserStatusDeactivated
		require.NoError(t, f.users.Update(ctx, stored))

		_, err = f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: again.RefreshToken})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u := f.seed(t, "alice", identity.RoleCustomer)
	f.seed(t, "bob", identity.RoleCustomer)

	login, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "alice", Password: password})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, appidentity.LogoutInput{
		AccessTokenID:  access.ID,
		AccessTokenTTL: access.GetRemainingTTL(),
		RefreshToken:   login.RefreshToken,
		UserID:         u.ID,
	}))

	revoked, err := auth.IsClaimsRevoked(ctx, f.revoked, access)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Refresh(ctx, appidentity.RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.True(t, shared.HasCode(err, shared.CodeUnauthorized))

	t.Run("refresh token of another account", func(t *testing.T) {
		bob, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "bob", Password: password})
		require.NoError(t, err)
		err = f.svc.Logout(ctx, appidentity.LogoutInput{RefreshToken: bob.RefreshToken, UserID: u.ID})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("all sessions", func(t *testing.T) {
		bob, err := f.users.FindByUsername(ctx, "bob")
		require.NoError(t, err)
		session, err := f.svc.Login(ctx, appidentity.LoginInput{Username: "bob", Password: password})
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, appidentity.LogoutInput{UserID: bob.ID, AllSessions: true}))

		claims, err := f.jwt.ValidateAccessToken(session.AccessToken)
		require.NoError(t, err)
		revoked, err := auth.IsClaimsRevoked(ctx, f.revoked, claims)
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestLogout_WithoutRevocationStore(t *testing.T) {
	f := newAuthFixture(t)
	svc := appidentity.NewAuthService(&transaction.NoOpScope{UserRepo: f.users}, f.users, f.jwt, nil, nil)
	assert.NoError(t, svc.Logout(context.Background(), appidentity.LogoutInput{AllSessions: true}))
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u := f.seed(t, "alice", identity.RoleCustomer)

	info, err := f.svc.Me(ctx, u.Principal())
	require.NoError(t, err)
	assert.Equal(t, "alice", info.DisplayName)

	_, err = f.svc.Me(ctx, identity.Principal{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
