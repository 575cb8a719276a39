package kv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "a:1", "x", 0))
	require.NoError(t, store.Set(ctx, "a:2", "y", 0))
	require.NoError(t, store.Set(ctx, "b:1", "z", 0))

	value, ok, err := store.Get(ctx, "a:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)

	keys, err := store.List(ctx, "a:")
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2"}, keys)

	require.NoError(t, store.Del(ctx, "a:1"))
	keys, err = store.List(ctx, "a:")
	require.NoError(t, err)
	assert.Equal(t, []string{"a:2"}, keys)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	ok, err := store.SetNX(ctx, "lock", "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "lock", "t2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.SetNX(ctx, "lock", "t2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreIncrByConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const workers = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.IncrBy(ctx, "seq", 1)
			require.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

func TestLockerRelease(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(NewMemoryStore())

	token, ok, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "job", "someone-else"))
	_, ok, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok, "foreign token must not release the lease")

	require.NoError(t, locker.Release(ctx, "job", token))
	_, ok, err = locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = locker.TryLock(ctx, "", time.Minute)
	assert.Error(t, err)
}
