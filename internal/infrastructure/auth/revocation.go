package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks tokens that were signed out before they expired.
// Entries only need to live as long as the token they revoke.
type RevocationList interface {
	// Revoke marks a token ID as revoked for ttl
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether a token ID has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser rejects every token of a user issued at or before now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at issuedAt predates a user-wide revocation
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// IsClaimsRevoked checks both the token ID and the user-wide cutoff
func IsClaimsRevoked(ctx context.Context, list RevocationList, claims *Claims) (bool, error) {
	if list == nil {
		return false, nil
	}
	if claims.ID != "" {
		revoked, err := list.IsRevoked(ctx, claims.ID)
		if err != nil || revoked {
			return revoked, err
		}
	}
	return list.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
}

// RedisRevocationList stores revocations in redis so every server instance sees them
type RedisRevocationList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRevocationList creates a revocation list on an existing client
func NewRedisRevocationList(client redis.UniversalClient, keyPrefix string) *RedisRevocationList {
	if keyPrefix == "" {
		keyPrefix = "servicebook:"
	}
	return &RedisRevocationList{client: client, keyPrefix: keyPrefix + "revoked:"}
}

func (r *RedisRevocationList) jtiKey(jti string) string {
	return r.keyPrefix + "jti:" + jti
}

func (r *RedisRevocationList) userKey(userID string) string {
	return r.keyPrefix + "user:" + userID
}

// Revoke marks a token ID as revoked
func (r *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token ID has been revoked
func (r *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the cutoff as unix seconds
func (r *RedisRevocationList) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	cutoff := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.client.Set(ctx, r.userKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked compares the token issue time against the stored cutoff
func (r *RedisRevocationList) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed revocation cutoff for user %s: %w", userID, err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)

// MemoryRevocationList is a single-process revocation list
type MemoryRevocationList struct {
	mu      sync.Mutex
	tokens  map[string]time.Time // jti -> expiry
	cutoffs map[string]time.Time // userID -> cutoff
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty in-process revocation list
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks a token ID as revoked
func (m *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = m.now().Add(ttl)
	return nil
}

// IsRevoked reports whether a token ID has been revoked, dropping expired entries
func (m *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.tokens[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		delete(m.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser records a cutoff for the user
func (m *MemoryRevocationList) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs[userID] = m.now()
	return nil
}

// IsUserRevoked compares the token issue time against the recorded cutoff
func (m *MemoryRevocationList) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff, ok := m.cutoffs[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}

var _ RevocationList = (*MemoryRevocationList)(nil)
