package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ shared.IdempotencyStore }

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func idempotentRouter(store shared.IdempotencyStore, status *int, calls *int) *gin.Engine {
	principal := identity.NewPrincipal(uuid.MustParse("7f0f1b9e-8a4c-4c6e-9d1a-1d2f3a4b5c6d"), identity.RoleCustomer)
	r := gin.New()
	r.Use(RequestID())
	r.POST("/bookings",
		func(c *gin.Context) { c.Set(JWTPrincipalKey, principal) },
		IdempotencyKey(store, shared.DefaultIdempotencyConfig(), "booking:create:", nil),
		func(c *gin.Context) {
			*calls++
			c.Status(*status)
		},
	)
	return r
}

func postWithKey(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func TestIdempotencyKey_RejectsReplay(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	status, calls := http.StatusCreated, 0
	r := idempotentRouter(store, &status, &calls)

	w := serve(t, r, postWithKey("k-1"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(t, r, postWithKey("k-1"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_DUPLICATE_REQUEST")
	assert.Equal(t, 1, calls)

	processed, err := store.IsProcessed(context.Background(), "booking:create:7f0f1b9e-8a4c-4c6e-9d1a-1d2f3a4b5c6d:k-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIdempotencyKey_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	status, calls := http.StatusUnprocessableEntity, 0
	r := idempotentRouter(store, &status, &calls)

	serve(t, r, postWithKey("k-2"))
	status = http.StatusCreated
	w := serve(t, r, postWithKey("k-2"))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyKey_WithoutHeader(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	status, calls := http.StatusCreated, 0
	r := idempotentRouter(store, &status, &calls)

	serve(t, r, postWithKey(""))
	serve(t, r, postWithKey(""))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, store.Size())
}

func TestIdempotencyKey_TooLong(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()
	status, calls := http.StatusCreated, 0
	r := idempotentRouter(store, &status, &calls)

	w := serve(t, r, postWithKey(strings.Repeat("k", MaxIdempotencyKeyLength+1)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotencyKey_StoreErrorStillServes(t *testing.T) {
	status, calls := http.StatusCreated, 0
	r := idempotentRouter(failingStore{}, &status, &calls)

	w := serve(t, r, postWithKey("k-3"))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
}
