package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations records ended sessions until their tokens would expire anyway.
type Revocations struct {
	client *redis.Client
	prefix string
}

// NewRevocations creates a Redis-backed revocation list.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, prefix: "mealtrack:revoked:"}
}

// Revoke marks the session id as ended.
func (r *Revocations) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+sessionID, 1, ttl).Err()
}

// Revoked reports whether the session id was ended.
func (r *Revocations) Revoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
