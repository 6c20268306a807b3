package blacklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/talentboard/authcore/internal/auth/blacklist"
)

func newRedisList(t *testing.T, retention time.Duration) (*blacklist.Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return blacklist.NewRedis(client, retention), srv
}

func TestRedisAddAndContains(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisList(t, time.Hour)

	ok, err := l.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Add(ctx, "tok-1"))

	ok, err = l.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Contains(ctx, "tok-2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisEntriesExpireWithRetention(t *testing.T) {
	ctx := context.Background()
	l, srv := newRedisList(t, time.Hour)

	require.NoError(t, l.Add(ctx, "tok-1"))

	srv.FastForward(time.Hour + time.Minute)

	ok, err := l.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, srv := newRedisList(t, time.Hour)

	require.NoError(t, l.Add(ctx, "tok-1"))
	srv.FastForward(30 * time.Minute)

	// Re-adding must not extend the original retention window.
	require.NoError(t, l.Add(ctx, "tok-1"))
	srv.FastForward(31 * time.Minute)

	ok, err := l.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisSweepIsNoOp(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisList(t, time.Hour)

	require.NoError(t, l.Add(ctx, "tok-1"))

	removed, err := l.Sweep(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, removed)

	ok, err := l.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
}
