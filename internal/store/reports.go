package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reports keeps serialized import-job reports for a limited time.
type Reports struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewReports creates a Redis-backed report store.
func NewReports(client *redis.Client, ttl time.Duration) *Reports {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Reports{client: client, prefix: "mealtrack:import:", ttl: ttl}
}

// Put overwrites the report for id.
func (r *Reports) Put(ctx context.Context, id string, data []byte) error {
	return r.client.Set(ctx, r.prefix+id, data, r.ttl).Err()
}

// Get returns nil, nil when no report exists.
func (r *Reports) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}
