package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// HealthHandler reports liveness of the service and its database
type HealthHandler struct {
	db          Pinger
	distributed bool
}

// NewHealthHandler creates a HealthHandler. distributed tells whether the
// idempotency and revocation stores are shared across instances.
func NewHealthHandler(db Pinger, distributed bool) *HealthHandler {
	return &HealthHandler{db: db, distributed: distributed}
}

// Check godoc
// @ID           healthCheck
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} map[string]any
// @Failure      503 {object} map[string]any
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	cacheMode := "memory"
	if h.distributed {
		cacheMode = "redis"
	}
	now := time.Now().Format(time.RFC3339)

	if err := h.db.Ping(); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"time":     now,
			"database": "error",
			"cache":    cacheMode,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"time":     now,
		"database": "ok",
		"cache":    cacheMode,
	})
}
