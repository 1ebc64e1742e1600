package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	allowed, remaining := rl.Allow("a")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	allowed, _ = rl.Allow("a")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("a")
	assert.False(t, allowed)

	// Other keys have their own budget
	allowed, _ = rl.Allow("b")
	assert.True(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = rl.Allow("a")
	assert.True(t, allowed)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.POST("/login", RateLimit(rl), ok)

	w := serve(t, r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = serve(t, r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
