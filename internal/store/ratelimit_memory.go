package store

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count     int64
	expiresAt time.Time
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time

	stopJanitor context.CancelFunc
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (s *RateLimitMemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &windowCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}

	c.count++

	return c.count, nil
}

// Sweep drops expired counters and returns how many were removed.
func (s *RateLimitMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for key, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, key)
			removed++
		}
	}

	return removed
}

// StartJanitor sweeps expired counters every interval until Shutdown.
func (s *RateLimitMemoryStore) StartJanitor(every time.Duration) {
	if every <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.stopJanitor != nil {
		s.stopJanitor()
	}
	s.stopJanitor = cancel
	s.mu.Unlock()

	ticker := time.NewTicker(every)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Shutdown stops the janitor, if one is running.
func (s *RateLimitMemoryStore) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopJanitor != nil {
		s.stopJanitor()
		s.stopJanitor = nil
	}

	return nil
}

// Len returns the number of tracked counters, expired or not.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.counters)
}
