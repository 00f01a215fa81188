package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore tracks revoked session-token fingerprints until the token's
// natural expiry, after which the entry is garbage.
type RevocationStore interface {
	// MarkRevoked records a fingerprint as revoked until the given time.
	MarkRevoked(ctx context.Context, fingerprint string, until time.Time) error

	// IsRevoked reports whether a fingerprint has been revoked.
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}

const revocationKeyPrefix = "tenantguard:revoked:"

// RedisRevocations implements RevocationStore on Redis so revocation is
// visible to every server instance immediately.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations creates a Redis-backed revocation store.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// MarkRevoked stores the fingerprint with a TTL matching the token expiry.
func (r *RedisRevocations) MarkRevoked(ctx context.Context, fingerprint string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Token already past expiry; nothing to track.
		return nil
	}

	if err := r.client.Set(ctx, revocationKeyPrefix+fingerprint, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark token revoked: %w", err)
	}
	return nil
}

// IsRevoked checks for the fingerprint key.
func (r *RedisRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationKeyPrefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocations implements RevocationStore in memory. This implementation
// is for testing and single-instance development only.
type MemoryRevocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryRevocations creates an in-memory revocation store.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocations) MarkRevoked(ctx context.Context, fingerprint string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revoked[fingerprint] = until
	return nil
}

func (m *MemoryRevocations) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	until, ok := m.revoked[fingerprint]
	if !ok {
		return false, nil
	}
	return time.Now().Before(until), nil
}
