package ratelimit

import (
	"context"
	"time"
)

// KeyPrefix namespaces rate limit counters in the shared store.
const KeyPrefix = "ratelimit:"

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow records a request from client and reports whether it is within the limit.
	Allow(ctx context.Context, client string) (Decision, error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	Window  time.Duration
}

// FixedWindowLimiter counts requests per client in a window that starts
// with the client's first request and ends when the counter expires.
type FixedWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a limiter allowing limit requests per window.
func NewFixedWindowLimiter(store Store, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, client string) (Decision, error) {
	count, err := l.store.Increment(ctx, Key(client), l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed: count <= l.limit,
		Count:   count,
		Limit:   l.limit,
		Window:  l.window,
	}, nil
}

// Key returns the store key of client's counter.
func Key(client string) string {
	return KeyPrefix + client
}
