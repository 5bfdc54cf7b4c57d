package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

// ErrCacheMiss reports an absent key.
var ErrCacheMiss = errors.New("redis: cache miss")

// Cache stores JSON-encoded values under a common key prefix with a default
// TTL. The service uses it to serve recent operation records without hitting
// the database.
type Cache struct {
	client *Client
	prefix string
	ttl    time.Duration
}

// NewCache builds a cache over client. A non-positive ttl disables expiry.
func NewCache(client *Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "mailsweep:"
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Set stores value as JSON under key with the cache's TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "encode cache value")
	}
	if err := c.client.rdb.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "set cache key")
	}
	return nil
}

// Get decodes the value at key into dest. Returns ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "get cache key")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "decode cache value")
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "delete cache key")
	}
	return nil
}
