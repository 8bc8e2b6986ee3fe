package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySyncLock_TryLock(t *testing.T) {
	lock := NewInMemorySyncLock()
	ctx := context.Background()

	t.Run("first caller acquires", func(t *testing.T) {
		release, ok, err := lock.TryLock(ctx, "tenant-1", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
		defer release()

		_, ok, err = lock.TryLock(ctx, "tenant-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "held lock must not be acquired twice")
	})

	t.Run("release frees the key", func(t *testing.T) {
		release, ok, err := lock.TryLock(ctx, "tenant-2", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
		release()

		release, ok, err = lock.TryLock(ctx, "tenant-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
		release()
	})

	t.Run("keys are independent", func(t *testing.T) {
		r1, ok1, _ := lock.TryLock(ctx, "tenant-3", time.Hour)
		r2, ok2, _ := lock.TryLock(ctx, "tenant-4", time.Hour)
		assert.True(t, ok1)
		assert.True(t, ok2)
		r1()
		r2()
	})
}

func TestInMemorySyncLock_Expiry(t *testing.T) {
	lock := NewInMemorySyncLock()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return now }

	stale, ok, err := lock.TryLock(ctx, "tenant", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	release, ok, err := lock.TryLock(ctx, "tenant", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired holder must be replaced")

	// The expired holder must not release the new owner's lock
	stale()
	_, ok, _ = lock.TryLock(ctx, "tenant", time.Minute)
	assert.False(t, ok)

	release()
	assert.Equal(t, 0, lock.Size())
}

func TestInMemorySyncLock_Concurrent(t *testing.T) {
	lock := NewInMemorySyncLock()
	ctx := context.Background()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := lock.TryLock(ctx, "tenant", time.Hour); ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), acquired.Load())
}

func TestSyncLockFactory_CreateLock(t *testing.T) {
	t.Run("redis disabled uses in-memory lock", func(t *testing.T) {
		lock, err := NewSyncLockFactory(config.RedisConfig{Enabled: false}).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLock{}, lock)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		lock, err := NewSyncLockFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}).CreateLock()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLock{}, lock)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		_, err := NewSyncLockFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithInMemoryFallback(false)).CreateLock()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
