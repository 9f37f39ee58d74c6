package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for rate limit counters.
type Store interface {
	// Increment atomically adds one to the counter at key and returns the
	// new value. When the counter is created, it expires after window.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
