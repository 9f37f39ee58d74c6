package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/translation-sim/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testStart = time.Unix(1_700_000_000, 250_000_000)

// testRepository runs the behaviour every jobs.Repository must share.
func testRepository(t *testing.T, newRepo func(t *testing.T) jobs.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("unknown job has no status or timeline", func(t *testing.T) {
		repo := newRepo(t)

		status, err := repo.Status(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusUnknown, status)

		_, ok, err := repo.Timeline(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("initialize stores timeline and pending status", func(t *testing.T) {
		repo := newRepo(t)
		timeline := jobs.Timeline{StartTime: testStart, Duration: 7 * time.Second}

		stored, created, err := repo.Initialize(ctx, "job123", timeline)

		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, timeline.StartTime.Equal(stored.StartTime))
		assert.Equal(t, timeline.Duration, stored.Duration)

		got, ok, err := repo.Timeline(ctx, "job123")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, testStart.Equal(got.StartTime))
		assert.Equal(t, 7*time.Second, got.Duration)

		status, err := repo.Status(ctx, "job123")
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusPending, status)
	})

	t.Run("second initialize keeps the first timeline", func(t *testing.T) {
		repo := newRepo(t)
		first := jobs.Timeline{StartTime: testStart, Duration: 3 * time.Second}
		second := jobs.Timeline{StartTime: testStart.Add(time.Second), Duration: 9 * time.Second}

		_, _, err := repo.Initialize(ctx, "job123", first)
		require.NoError(t, err)

		stored, created, err := repo.Initialize(ctx, "job123", second)

		require.NoError(t, err)
		assert.False(t, created)
		assert.True(t, first.StartTime.Equal(stored.StartTime))
		assert.Equal(t, first.Duration, stored.Duration)
	})

	t.Run("concurrent initialize has a single winner", func(t *testing.T) {
		repo := newRepo(t)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
			seen    = map[time.Duration]bool{}
		)

		for i := range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				proposed := jobs.Timeline{StartTime: testStart, Duration: time.Duration(i+1) * time.Second}

				stored, created, err := repo.Initialize(ctx, "race", proposed)
				if err != nil {
					t.Errorf("initialize: %v", err)

					return
				}

				mu.Lock()
				defer mu.Unlock()

				if created {
					winners++
				}

				seen[stored.Duration] = true
			}()
		}

		wg.Wait()

		assert.Equal(t, 1, winners)
		assert.Len(t, seen, 1, "every caller must observe the winning duration")
	})

	t.Run("transition writes non-terminal statuses", func(t *testing.T) {
		repo := newRepo(t)

		stored, err := repo.Transition(ctx, "job123", jobs.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusPending, stored)

		stored, err = repo.Transition(ctx, "job123", jobs.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusCompleted, stored)
	})

	t.Run("terminal status is never overwritten", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Transition(ctx, "job123", jobs.StatusError)
		require.NoError(t, err)

		for _, next := range []jobs.Status{jobs.StatusPending, jobs.StatusCompleted} {
			stored, err := repo.Transition(ctx, "job123", next)

			require.NoError(t, err)
			assert.Equal(t, jobs.StatusError, stored)
		}

		status, err := repo.Status(ctx, "job123")
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusError, status)
	})

	t.Run("initialize after error keeps the error", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Transition(ctx, "job123", jobs.StatusError)
		require.NoError(t, err)

		_, created, err := repo.Initialize(ctx, "job123", jobs.Timeline{StartTime: testStart, Duration: time.Second})
		require.NoError(t, err)
		assert.True(t, created)

		status, err := repo.Status(ctx, "job123")
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusError, status)
	})
}

// testRepositoryExpiry runs the ttl behaviour every jobs.Repository must
// share. newRepo returns a store with the given ttl and a func that moves
// its clock forward.
func testRepositoryExpiry(
	t *testing.T,
	newRepo func(t *testing.T, ttl time.Duration) (jobs.Repository, func(time.Duration)),
) {
	t.Helper()

	ctx := context.Background()

	t.Run("status writes keep the timeline alive", func(t *testing.T) {
		repo, advance := newRepo(t, 5*time.Second)
		timeline := jobs.Timeline{StartTime: testStart, Duration: 10 * time.Second}

		_, _, err := repo.Initialize(ctx, "job123", timeline)
		require.NoError(t, err)

		for range 6 {
			advance(2 * time.Second)

			_, err := repo.Transition(ctx, "job123", jobs.StatusPending)
			require.NoError(t, err)

			got, ok, err := repo.Timeline(ctx, "job123")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, testStart.Equal(got.StartTime))
			assert.Equal(t, 10*time.Second, got.Duration)
		}

		advance(6 * time.Second)

		_, ok, err := repo.Timeline(ctx, "job123")
		require.NoError(t, err)
		assert.False(t, ok, "an idle job expires as a whole")

		status, err := repo.Status(ctx, "job123")
		require.NoError(t, err)
		assert.Equal(t, jobs.StatusUnknown, status)
	})

	t.Run("job longer than the ttl completes", func(t *testing.T) {
		repo, advance := newRepo(t, 5*time.Second)
		now := testStart

		tracker := jobs.NewTracker(
			repo,
			jobs.Config{ErrorProbability: 0, MinDuration: 10, MaxDuration: 10},
			zap.NewNop(),
			jobs.WithRandom(jobs.NewSeededRandom(1)),
			jobs.WithClock(func() time.Time { return now }),
		)

		step := func(d time.Duration) {
			now = now.Add(d)
			advance(d)
		}

		var seen []jobs.Status

		for range 6 {
			status, err := tracker.Status(ctx, "long")
			require.NoError(t, err)

			seen = append(seen, status)

			step(2 * time.Second)
		}

		assert.Equal(t, []jobs.Status{
			jobs.StatusPending, jobs.StatusPending, jobs.StatusPending,
			jobs.StatusPending, jobs.StatusPending, jobs.StatusCompleted,
		}, seen)

		got, ok, err := repo.Timeline(ctx, "long")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, testStart.Equal(got.StartTime), "start time is assigned once")
	})
}
