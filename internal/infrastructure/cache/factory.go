package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the key-value stores backed by redis, or by process memory
// when redis is disabled or unreachable.
type Stores struct {
	Idempotency shared.IdempotencyStore
	Revocations auth.RevocationList
	// Distributed is false when the in-memory fallback is in use
	Distributed bool

	client *redis.Client
}

// Close releases the stores and the redis connection
func (s *Stores) Close() error {
	var errs []error
	if s.Idempotency != nil {
		errs = append(errs, s.Idempotency.Close())
	}
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	return errors.Join(errs...)
}

// StoresOption is a functional option for NewStores
type StoresOption func(*storesOptions)

type storesOptions struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) StoresOption {
	return func(o *storesOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable redis degrades to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) StoresOption {
	return func(o *storesOptions) {
		o.allowFallback = allow
	}
}

// NewStores connects to redis when enabled and builds the stores on it
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...StoresOption) (*Stores, error) {
	o := storesOptions{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Enabled {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			o.logger.Info("using redis for idempotency and token revocation", zap.String("addr", cfg.Addr()))
			return &Stores{
				Idempotency: NewRedisIdempotencyStore(client, KeyPrefix),
				Revocations: auth.NewRedisRevocationList(client, KeyPrefix),
				Distributed: true,
				client:      client,
			}, nil
		}
		if !o.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		o.logger.Warn("redis unavailable, falling back to in-memory stores. "+
			"Idempotency keys and revocations will not be shared between instances.",
			zap.Error(err),
		)
	}

	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(5 * time.Minute),
		Revocations: auth.NewMemoryRevocationList(),
	}, nil
}
