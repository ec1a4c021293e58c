package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "rbac:version"

// Cache is an optional, versioned Redis cache for resolved permission and
// role sets. Keys embed a global version; Bump increments it, which
// synchronously invalidates every cached set. All methods tolerate a nil
// receiver, so the resolver works identically without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return ver, err
}

func (c *Cache) key(ctx context.Context, kind string, userID uuid.UUID) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rbac:%s:%s:%d", kind, userID, ver), nil
}

// Fetch returns the cached name set and whether it was present. Cache errors
// degrade to a miss; the store remains the source of truth.
func (c *Cache) Fetch(ctx context.Context, kind string, userID uuid.UUID) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key, err := c.key(ctx, kind, userID)
	if err != nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, false
	}
	return names, true
}

// Store caches a resolved name set under the current version.
func (c *Cache) Store(ctx context.Context, kind string, userID uuid.UUID, names []string) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.key(ctx, kind, userID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Bump invalidates every cached set by incrementing the global version. Must
// be called synchronously on any role/permission/assignment mutation.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
