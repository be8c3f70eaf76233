package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache keeps token -> participant id pairs in Redis. Only the immutable
// mapping is stored; the participant row is always read from Postgres.
type TokenCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTokenCache builds a cache with the given entry lifetime.
func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenCache{client: client, prefix: "mealtrack:token:", ttl: ttl}
}

// Get returns "" on a miss.
func (c *TokenCache) Get(ctx context.Context, token string) (string, error) {
	id, err := c.client.Get(ctx, c.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

// Set stores the mapping for the configured ttl.
func (c *TokenCache) Set(ctx context.Context, token, participantID string) error {
	return c.client.Set(ctx, c.prefix+token, participantID, c.ttl).Err()
}
