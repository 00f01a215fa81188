// Package cache provides Redis-backed caching of role and policy records with
// explicit tag-based invalidation. Only raw records are cached; the effective
// permission map is always re-derived per request so a privilege change can
// never be outlived by a cached authorization decision.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/telemetry"
)

const (
	keyPrefix = "tenantguard:cache:"
	tagPrefix = "tenantguard:tag:"
)

// Record scopes used as cache tags.
const (
	ScopeRoles    = "roles"
	ScopePolicies = "policies"
)

// Tags identify cached entries along the four invalidation dimensions. Zero
// dimensions are ignored; invalidation unions the members of every set
// dimension.
type Tags struct {
	OrgID          uuid.UUID
	Scope          string
	Classification models.DataClassification
	Residency      models.DataResidency
}

func (t Tags) tagKeys() []string {
	var keys []string
	if t.OrgID != uuid.Nil {
		keys = append(keys, tagPrefix+"org:"+t.OrgID.String())
	}
	if t.Scope != "" {
		keys = append(keys, tagPrefix+"scope:"+t.Scope)
	}
	if t.Classification != "" {
		keys = append(keys, tagPrefix+"classification:"+string(t.Classification))
	}
	if t.Residency != "" {
		keys = append(keys, tagPrefix+"residency:"+string(t.Residency))
	}
	return keys
}

// Invalidator is the write-side interface: every role or policy mutation
// invalidates by tag before the next read.
type Invalidator interface {
	Invalidate(ctx context.Context, tags Tags) error
}

// RecordCache stores JSON-encoded records in Redis, indexed into a tag set
// per dimension.
type RecordCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *telemetry.Metrics
}

// New creates a record cache. A zero TTL defaults to 5 minutes; TTL is a
// safety net, tag invalidation is the correctness mechanism.
func New(client *redis.Client, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecordCache{
		client:  client,
		ttl:     ttl,
		metrics: telemetry.GetMetrics(),
	}
}

// get loads and decodes a cached entry. The boolean reports a hit.
func (c *RecordCache) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheMissesTotal.Add(ctx, 1)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("cache entry decode failed: %w", err)
	}

	c.metrics.CacheHitsTotal.Add(ctx, 1)
	return true, nil
}

// set encodes and stores an entry, registering it under every tag dimension.
func (c *RecordCache) set(ctx context.Context, key string, v any, tags Tags) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache entry encode failed: %w", err)
	}

	fullKey := keyPrefix + key

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, fullKey, data, c.ttl)
	for _, tagKey := range tags.tagKeys() {
		pipe.SAdd(ctx, tagKey, fullKey)
		// Tag sets outlive entries slightly; stale members DEL to no-ops.
		pipe.Expire(ctx, tagKey, 2*c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Invalidate deletes every entry registered under any of the given tag
// dimensions, then the tag sets themselves.
func (c *RecordCache) Invalidate(ctx context.Context, tags Tags) error {
	tagKeys := tags.tagKeys()
	if len(tagKeys) == 0 {
		return nil
	}

	members, err := c.client.SUnion(ctx, tagKeys...).Result()
	if err != nil {
		return fmt.Errorf("cache invalidation lookup failed: %w", err)
	}

	toDelete := append(members, tagKeys...)
	if err := c.client.Del(ctx, toDelete...).Err(); err != nil {
		return fmt.Errorf("cache invalidation failed: %w", err)
	}

	c.metrics.CacheInvalidationsTotal.Add(ctx, 1)
	return nil
}
