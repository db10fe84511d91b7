// Package kvstore is the leaf client for the external key-value cache. It
// offers typed get/set/delete with per-key TTL and an atomic windowed
// increment; it contains no business logic and defines no key names.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every infrastructure failure from the cache so callers
// can keep outages apart from authentication denials.
var ErrUnavailable = errors.New("kv store unavailable")

// Client wraps a Redis connection. Safe for concurrent use.
type Client struct {
	rdb redis.UniversalClient
}

// New returns a Client over rdb.
func New(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// Get returns (value, true) when key exists, ("", false) when absent.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set stores value under key with the given TTL, overwriting any prior value.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes keys. Deleting absent keys is not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// IncrWindow atomically increments key and refreshes its TTL to window,
// returning the new count. The store's native INCR keeps concurrent callers
// from under-counting.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}
