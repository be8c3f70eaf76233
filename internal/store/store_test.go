package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := &Redis{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func TestRedis_Healthy(t *testing.T) {
	mr, r := newTestRedis(t)
	assert.True(t, r.Healthy(context.Background()))

	mr.Close()
	assert.False(t, r.Healthy(context.Background()))

	var nilRedis *Redis
	assert.False(t, nilRedis.Healthy(context.Background()))
}

func TestTokenCache(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)
	c := NewTokenCache(r.Client, time.Minute)

	id, err := c.Get(ctx, "HACK-1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, c.Set(ctx, "HACK-1", "p1"))
	id, err = c.Get(ctx, "HACK-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	mr.FastForward(2 * time.Minute)
	id, err = c.Get(ctx, "HACK-1")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRevocations(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)
	rv := NewRevocations(r.Client)

	revoked, err := rv.Revoked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rv.Revoke(ctx, "s1", time.Now().Add(time.Hour)))
	revoked, err = rv.Revoked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, rv.Revoke(ctx, "s2", time.Now().Add(-time.Minute)))
	revoked, err = rv.Revoked(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens need no entry")

	mr.FastForward(2 * time.Hour)
	revoked, err = rv.Revoked(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	_, r := newTestRedis(t)
	rs := NewReports(r.Client, time.Hour)

	got, err := rs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, rs.Put(ctx, "job-1", []byte(`{"status":"pending"}`)))
	got, err = rs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending"}`, string(got))
}
