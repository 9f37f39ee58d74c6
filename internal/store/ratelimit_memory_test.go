package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/translation-sim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore(t *testing.T) {
	t.Run("counts requests in the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Increment(context.Background(), "ratelimit:10.0.0.1", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Increment(context.Background(), "key1", time.Minute)
		_, _ = s.Increment(context.Background(), "key1", time.Minute)

		count, err := s.Increment(context.Background(), "key2", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "key2 should have its own counter")
	})

	t.Run("window is measured from the first request", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		window := 150 * time.Millisecond

		_, _ = s.Increment(context.Background(), "key1", window)
		time.Sleep(50 * time.Millisecond)
		count, _ := s.Increment(context.Background(), "key1", window)
		assert.Equal(t, int64(2), count, "later requests must not extend the window")

		time.Sleep(120 * time.Millisecond)

		count, err := s.Increment(context.Background(), "key1", window)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "a new window starts after expiry")
	})

	t.Run("concurrent increments are serialized", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var wg sync.WaitGroup

		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = s.Increment(context.Background(), "key1", time.Minute)
			}()
		}

		wg.Wait()

		count, _ := s.Increment(context.Background(), "key1", time.Minute)
		assert.Equal(t, int64(51), count)
	})

	t.Run("sweep removes expired counters", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Increment(context.Background(), "short", 10*time.Millisecond)
		_, _ = s.Increment(context.Background(), "long", time.Minute)

		time.Sleep(20 * time.Millisecond)

		assert.Equal(t, 1, s.Sweep())
		assert.Equal(t, 0, s.Sweep())
	})
}

func TestRateLimitMemoryStore_Janitor(t *testing.T) {
	s := store.NewRateLimitMemoryStore()
	s.StartJanitor(10 * time.Millisecond)

	t.Cleanup(func() { _ = s.Shutdown() })

	_, _ = s.Increment(context.Background(), "short", 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.Sweep() == 0 && s.Len() == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown())
	require.NoError(t, s.Shutdown(), "shutdown is idempotent")
}
