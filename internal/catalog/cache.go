package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespaces whose cached reads are invalidated together by a version bump.
const (
	nsCategories    = "categories"
	nsSubcategories = "subcategories"
)

// Cache wraps Redis helpers for JSON payloads. Keys embed a per-namespace version so writes
// invalidate every cached page at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or non-positive ttl disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func versionKey(ns string) string { return "catalog:" + ns + ":version" }

// Version returns the current namespace version; a missing key is version 0.
func (c *Cache) Version(ctx context.Context, ns string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Bump invalidates every key built from the namespace's previous version.
func (c *Cache) Bump(ctx context.Context, namespaces ...string) error {
	if !c.enabled() {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, ns := range namespaces {
		pipe.Incr(ctx, versionKey(ns))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Key builds a versioned cache key for a read in ns.
func (c *Cache) Key(ctx context.Context, ns, suffix string) (string, error) {
	if !c.enabled() {
		return "", nil
	}
	v, err := c.Version(ctx, ns)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:%s:v%d:%s", ns, v, suffix), nil
}
