// Package rediscache stores carrier OAuth tokens in Redis.
package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
)

const keyPrefix = "shipbridge:token:"

// TokenCache implements oauth.TokenCache on a Redis client.
type TokenCache struct {
	c *redis.Client
}

// New connects to the Redis server at addr.
func New(addr string) *TokenCache {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}))
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client) *TokenCache {
	return &TokenCache{c: c}
}

// GetToken implements oauth.TokenCache.
func (r *TokenCache) GetToken(ctx context.Context, key string) (string, bool, error) {
	val, err := r.c.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

// SetToken implements oauth.TokenCache. Non-positive TTLs are ignored so a
// token never outlives its expiry.
func (r *TokenCache) SetToken(ctx context.Context, key, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.c.Set(ctx, keyPrefix+key, token, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Ping checks connectivity.
func (r *TokenCache) Ping(ctx context.Context) error {
	return errors.Wrap(r.c.Ping(ctx).Err(), "redis ping")
}

// Close closes the client.
func (r *TokenCache) Close() error {
	return r.c.Close()
}

var _ oauth.TokenCache = (*TokenCache)(nil)
