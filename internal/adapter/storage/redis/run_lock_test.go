package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRunLock(t *testing.T) (*RunLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunLock(client), mr
}

func TestRunLock_AcquireRelease(t *testing.T) {
	lock, _ := setupRunLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "disburse:2026-08-29", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second caller loses while the lock is held.
	ok, err = lock.Acquire(ctx, "disburse:2026-08-29", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "disburse:2026-08-29"))

	ok, err = lock.Acquire(ctx, "disburse:2026-08-29", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunLock_DistinctKeys(t *testing.T) {
	lock, _ := setupRunLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "disburse:2026-08-29", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// A run for a different date is independent.
	ok, err = lock.Acquire(ctx, "disburse:2026-08-30", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunLock_Expiry(t *testing.T) {
	lock, mr := setupRunLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "disburse:2026-08-29", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// A crashed run's lock frees itself after the TTL.
	mr.FastForward(2 * time.Second)

	ok, err = lock.Acquire(ctx, "disburse:2026-08-29", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
