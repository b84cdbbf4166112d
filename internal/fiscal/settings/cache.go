package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "carthage:compliance_settings"

// Cached decorates a Store with a short-lived Redis snapshot. Settings change
// rarely (provisioning runs) but are read on every declaration build.
type Cached struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewCached wraps the store with Redis caching.
func NewCached(inner Store, client *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{inner: inner, client: client, ttl: ttl}
}

// Get returns the cached snapshot, falling back to the inner store. Cache
// failures are not fatal; the inner store remains authoritative.
func (c *Cached) Get(ctx context.Context) (Settings, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var s Settings
			if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
				return s, nil
			}
		}
	}
	s, err := c.inner.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if c.client != nil {
		if raw, err := json.Marshal(s); err == nil {
			_ = c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
		}
	}
	return s, nil
}

// ReplaceVATAccounts writes through and invalidates the snapshot.
func (c *Cached) ReplaceVATAccounts(ctx context.Context, collected, deductible []int64) error {
	if err := c.inner.ReplaceVATAccounts(ctx, collected, deductible); err != nil {
		return err
	}
	if c.client != nil {
		_ = c.client.Del(ctx, cacheKey).Err()
	}
	return nil
}
