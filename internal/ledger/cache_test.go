package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBalanceCache(client, time.Minute), mr
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 7)
	require.False(t, ok)

	cache.Set(ctx, 7, 812.5)
	due, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	require.Equal(t, 812.5, due)

	cache.Invalidate(ctx, 7)
	_, ok = cache.Get(ctx, 7)
	require.False(t, ok)
}

func TestBalanceCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 3, 100)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, 3)
	require.False(t, ok)
}

func TestBalanceCacheNilSafe(t *testing.T) {
	var cache *BalanceCache
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)
	cache.Set(ctx, 1, 10)
	cache.Invalidate(ctx, 1)
}
