package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("records a new key", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "deposit-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("rejects a repeated key", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "deposit-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "deposit-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh, "repeated key should not be fresh")
	})

	t.Run("accepts a key again after its TTL passes", func(t *testing.T) {
		fresh, err := store.MarkProcessed(ctx, "deposit-3", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		fresh, err = store.MarkProcessed(ctx, "deposit-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh, "expired key should be usable again")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Hour)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = store.MarkProcessed(ctx, "short", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	processed, err = store.IsProcessed(ctx, "short")
	require.NoError(t, err)
	assert.False(t, processed, "expired key should read as unprocessed")
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.MarkProcessed(ctx, "short-1", 10*time.Millisecond)
	store.MarkProcessed(ctx, "short-2", 10*time.Millisecond)
	store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())

	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const workers = 100

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			fresh, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			results <- err == nil && fresh
		}()
	}

	freshCount := 0
	for i := 0; i < workers; i++ {
		if <-results {
			freshCount++
		}
	}

	assert.Equal(t, 1, freshCount, "exactly one mark should win")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "double close must be safe")
}
