package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"github.com/servicebook/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the client supplied key for retry-safe requests
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header value
const MaxIdempotencyKeyLength = 200

// IdempotencyKey rejects a request whose Idempotency-Key the same caller
// already used under prefix. A key is released again when the request fails
// with a 4xx or 5xx, so the client may retry it. Requests without the header
// pass through. Must run after JWTAuth.
func IdempotencyKey(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, prefix string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(IdempotencyKeyHeader)
		if header == "" || store == nil || !cfg.Enabled {
			c.Next()
			return
		}
		if len(header) > MaxIdempotencyKeyLength {
			abort(c, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
			return
		}

		owner := "anonymous"
		if p, ok := GetPrincipal(c); ok {
			owner = p.UserID.String()
		}
		key := prefix + owner + ":" + header

		ctx := c.Request.Context()
		isNew, err := store.MarkProcessed(ctx, key, cfg.TTL)
		if err != nil {
			logger.WithLogger(ctx, log).Warn("Idempotency store unavailable, processing request anyway",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			abort(c, dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Forget(ctx, key); err != nil {
				logger.WithLogger(ctx, log).Warn("Failed to release idempotency key",
					zap.String("key", key), zap.Error(err))
			}
		}
	}
}
