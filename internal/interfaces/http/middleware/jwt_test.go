package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtFixture struct {
	svc         *auth.JWTService
	revocations *auth.MemoryRevocationList
	router      *gin.Engine
}

func newJWTFixture(t *testing.T) *jwtFixture {
	t.Helper()
	f := &jwtFixture{
		svc:         newTestJWTService(),
		revocations: auth.NewMemoryRevocationList(),
	}

	r := gin.New()
	r.Use(RequestID())
	authed := r.Group("/", JWTAuth(JWTMiddlewareConfig{JWTService: f.svc, Revocations: f.revocations}))
	authed.GET("/whoami", func(c *gin.Context) {
		p, found := GetPrincipal(c)
		require.True(t, found)
		c.JSON(http.StatusOK, gin.H{
			"user_id":    p.UserID.String(),
			"role":       p.Role,
			"ctx_user":   logger.GetUserID(c.Request.Context()),
			"has_claims": GetJWTClaims(c) != nil,
		})
	})
	authed.GET("/admin", RequireRole(identity.RoleAdmin), ok)
	f.router = r
	return f
}

func (f *jwtFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	return serve(t, f.router, req)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	f := newJWTFixture(t)
	userID := uuid.New()
	pair, err := f.svc.GenerateTokenPair(userID, "alice", identity.RoleCustomer)
	require.NoError(t, err)

	w := f.get(t, "/whoami", pair.AccessToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), `"role":"customer"`)
	assert.Contains(t, w.Body.String(), `"ctx_user":"`+userID.String()+`"`)
	assert.Contains(t, w.Body.String(), `"has_claims":true`)
}

func TestJWTAuth_Rejections(t *testing.T) {
	f := newJWTFixture(t)
	pair, err := f.svc.GenerateTokenPair(uuid.New(), "alice", identity.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", "ERR_TOKEN_INVALID"},
		{"wrong scheme", "Basic abc", "ERR_TOKEN_INVALID"},
		{"empty bearer", BearerPrefix, "ERR_TOKEN_INVALID"},
		{"garbage token", BearerPrefix + "not-a-jwt", "ERR_TOKEN_INVALID"},
		{"refresh token used as access", BearerPrefix + pair.RefreshToken, "ERR_TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := serve(t, f.router, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
			assert.Contains(t, w.Body.String(), `"request_id"`)
		})
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	f := newJWTFixture(t)
	pair, err := f.svc.GenerateTokenPair(uuid.New(), "alice", identity.RoleCustomer)
	require.NoError(t, err)
	claims, err := f.svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.revocations.Revoke(context.Background(), claims.ID, claims.GetRemainingTTL()))
	w := f.get(t, "/whoami", pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
}

func TestRequireRole(t *testing.T) {
	f := newJWTFixture(t)
	customer, err := f.svc.GenerateTokenPair(uuid.New(), "carol", identity.RoleCustomer)
	require.NoError(t, err)
	admin, err := f.svc.GenerateTokenPair(uuid.New(), "root", identity.RoleAdmin)
	require.NoError(t, err)

	w := f.get(t, "/admin", customer.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")

	w = f.get(t, "/admin", admin.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_WithoutJWT(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireRole(identity.RoleAdmin), ok)

	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
