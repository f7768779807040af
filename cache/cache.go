package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key holds no value.
var ErrMiss = errors.New("cache miss")

// Cache stores string values in Redis under a common key prefix.
type Cache struct {
	redis      *redis.Client
	prefix     string
	expiration time.Duration
}

// NewCache wraps client. An expiration of zero keeps entries until they are
// removed or overwritten.
func NewCache(client *redis.Client, prefix string, expiration time.Duration) *Cache {
	return &Cache{
		redis:      client,
		prefix:     prefix,
		expiration: expiration,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.redis.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.Wrap(ErrMiss, key)
		}
		return "", errors.Wrap(err, "failed to get from cache")
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.redis.Set(ctx, c.prefix+key, value, c.expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set cache")
	}
	return nil
}

// SetAll writes every entry in one MULTI/EXEC transaction, so readers see
// either all of the new values or none of them.
func (c *Cache) SetAll(ctx context.Context, entries map[string]string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, c.prefix+k, v, c.expiration)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to set cache entries")
	}
	return nil
}

func (c *Cache) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.redis.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete from cache")
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return errors.Wrap(c.redis.Ping(ctx).Err(), "redis ping")
}
