package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLoginGuard(t *testing.T) (*LoginGuard, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := &LoginGuard{Redis: client, Limit: 3, Window: 15 * time.Minute}
	return guard, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestLoginGuardBlocksAfterLimit(t *testing.T) {
	guard, _, cleanup := setupLoginGuard(t)
	defer cleanup()
	ctx := context.Background()

	ok, err := guard.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, ok, "fresh IP is allowed")

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "198.51.100.7"))
	}
	ok, err = guard.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.False(t, ok)

	// Another IP is unaffected.
	ok, err = guard.Allow(ctx, "198.51.100.8")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginGuardWindowExpires(t *testing.T) {
	guard, mr, cleanup := setupLoginGuard(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "198.51.100.7"))
	}
	ttl := mr.TTL("login:attempts:198.51.100.7")
	assert.Equal(t, 15*time.Minute, ttl, "window starts with the first failure")

	mr.FastForward(16 * time.Minute)
	ok, err := guard.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginGuardReset(t *testing.T) {
	guard, _, cleanup := setupLoginGuard(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "198.51.100.7"))
	}
	require.NoError(t, guard.Reset(ctx, "198.51.100.7"))
	ok, err := guard.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, ok)
}
