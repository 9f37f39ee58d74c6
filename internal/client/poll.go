package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/serroba/translation-sim/internal/jobs"
)

// PollOptions controls WaitForCompletion. Zero values take the defaults
// from DefaultPollOptions.
type PollOptions struct {
	MaxAttempts   uint
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Jitter multiplies each grown delay by a random factor in [0.5, 1.5).
	Jitter bool
	// MaxTotalTime bounds the whole wait. Zero means no bound.
	MaxTotalTime time.Duration
	// OnPoll is called after every successful status read.
	OnPoll func(attempt uint, status jobs.Status)
}

// DefaultPollOptions returns ten attempts starting at one second and
// doubling up to ten seconds.
func DefaultPollOptions() PollOptions {
	return PollOptions{
		MaxAttempts:   10,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

func (o PollOptions) withDefaults() PollOptions {
	d := DefaultPollOptions()

	if o.MaxAttempts == 0 {
		o.MaxAttempts = d.MaxAttempts
	}

	if o.InitialDelay <= 0 {
		o.InitialDelay = d.InitialDelay
	}

	if o.MaxDelay <= 0 {
		o.MaxDelay = d.MaxDelay
	}

	if o.BackoffFactor <= 0 {
		o.BackoffFactor = d.BackoffFactor
	}

	return o
}

type delays struct {
	next   time.Duration
	opts   PollOptions
	random func() float64
}

func (d *delays) wait(ctx context.Context) error {
	timer := time.NewTimer(d.next)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	grown := float64(d.next) * d.opts.BackoffFactor
	if d.opts.Jitter {
		grown *= 0.5 + d.random()
	}

	d.next = min(time.Duration(grown), d.opts.MaxDelay)

	return nil
}

// WaitForCompletion polls jobID until it is completed or error, sleeping
// with exponential backoff between polls. Rate limited polls count as
// attempts and are retried. Any other request error stops polling.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string, opts PollOptions) (jobs.Status, error) {
	opts = opts.withDefaults()

	random := c.random
	if random == nil {
		random = rand.Float64
	}

	backoff := &delays{next: opts.InitialDelay, opts: opts, random: random}
	start := time.Now()

	var (
		final jobs.Status
		stop  error
		polls uint
	)

	var gate strategy.Strategy = func(uint) bool {
		if stop != nil || polls >= opts.MaxAttempts {
			return false
		}

		if polls > 0 {
			if err := backoff.wait(ctx); err != nil {
				stop = err

				return false
			}
		}

		if opts.MaxTotalTime > 0 && time.Since(start) >= opts.MaxTotalTime {
			stop = fmt.Errorf("job %s not finished within %s: %w", jobID, opts.MaxTotalTime, ErrTimeout)

			return false
		}

		return true
	}

	err := retry.Retry(func(uint) error {
		polls++

		status, err := c.Status(ctx, jobID)
		if errors.Is(err, ErrRateLimited) {
			return err
		}

		if err != nil {
			stop = err

			return err
		}

		if opts.OnPoll != nil {
			opts.OnPoll(polls, status)
		}

		if !status.Terminal() {
			return ErrNotTerminal
		}

		final = status

		return nil
	}, gate)

	switch {
	case err == nil:
		return final, nil
	case stop != nil:
		return jobs.StatusUnknown, stop
	default:
		return jobs.StatusUnknown, fmt.Errorf("job %s after %d attempts: %w", jobID, polls, err)
	}
}
