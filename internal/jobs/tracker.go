package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/translation-sim/internal/messaging"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned when the simulation parameters are out of range.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the simulation parameters.
type Config struct {
	// ErrorProbability is the chance, per non-terminal poll, that the job fails.
	ErrorProbability float64
	// MinDuration and MaxDuration bound the assigned duration in whole seconds.
	MinDuration int
	MaxDuration int
}

// DefaultConfig returns the stock simulation parameters.
func DefaultConfig() Config {
	return Config{
		ErrorProbability: 0.1,
		MinDuration:      1,
		MaxDuration:      10,
	}
}

// Validate checks that the parameters describe a usable simulation.
func (c Config) Validate() error {
	if c.ErrorProbability < 0 || c.ErrorProbability > 1 {
		return fmt.Errorf("%w: error probability %v not in [0, 1]", ErrInvalidConfig, c.ErrorProbability)
	}

	if c.MinDuration < 0 {
		return fmt.Errorf("%w: min duration %d is negative", ErrInvalidConfig, c.MinDuration)
	}

	if c.MaxDuration < c.MinDuration {
		return fmt.Errorf("%w: max duration %d below min duration %d", ErrInvalidConfig, c.MaxDuration, c.MinDuration)
	}

	return nil
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithRandom sets the random source.
func WithRandom(r Random) Option {
	return func(t *Tracker) { t.random = r }
}

// WithClock sets the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithPublisher publishes lifecycle events through publish.
func WithPublisher(publish messaging.Publish[Event]) Option {
	return func(t *Tracker) { t.publish = publish }
}

// Tracker evaluates the status of simulated jobs.
type Tracker struct {
	repo    Repository
	cfg     Config
	random  Random
	now     func() time.Time
	publish messaging.Publish[Event]
	logger  *zap.Logger
}

// NewTracker creates a tracker. cfg must already be valid.
func NewTracker(repo Repository, cfg Config, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		repo:    repo,
		cfg:     cfg,
		random:  NewGlobalRandom(),
		now:     time.Now,
		publish: messaging.Discard[Event](),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Status returns the current status of jobID, advancing its state machine.
// A job seen for the first time is initialized as pending, unless the
// random error draw fails it first.
func (t *Tracker) Status(ctx context.Context, jobID string) (Status, error) {
	current, err := t.repo.Status(ctx, jobID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("read status of %s: %w", jobID, err)
	}

	if current.Terminal() {
		return current, nil
	}

	if t.random.Float64() < t.cfg.ErrorProbability {
		return t.fail(ctx, jobID)
	}

	timeline, ok, err := t.repo.Timeline(ctx, jobID)
	if err != nil {
		return StatusUnknown, fmt.Errorf("read timeline of %s: %w", jobID, err)
	}

	if !ok {
		var created bool

		timeline, created, err = t.initialize(ctx, jobID)
		if err != nil {
			return StatusUnknown, err
		}

		if created {
			return StatusPending, nil
		}
	}

	return t.advance(ctx, jobID, timeline)
}

func (t *Tracker) fail(ctx context.Context, jobID string) (Status, error) {
	stored, err := t.repo.Transition(ctx, jobID, StatusError)
	if err != nil {
		return StatusUnknown, fmt.Errorf("store error status of %s: %w", jobID, err)
	}

	if stored == StatusError {
		t.logger.Info("job returning error (random error)", zap.String("job_id", jobID))
		t.emit(ctx, Event{JobID: jobID, Type: EventFailed, Status: StatusError})
	}

	return stored, nil
}

func (t *Tracker) initialize(ctx context.Context, jobID string) (Timeline, bool, error) {
	seconds := t.cfg.MinDuration + t.random.IntN(t.cfg.MaxDuration-t.cfg.MinDuration+1)
	proposed := Timeline{
		StartTime: t.now(),
		Duration:  time.Duration(seconds) * time.Second,
	}

	stored, created, err := t.repo.Initialize(ctx, jobID, proposed)
	if err != nil {
		return Timeline{}, false, fmt.Errorf("initialize %s: %w", jobID, err)
	}

	if created {
		t.logger.Info("initialized new job",
			zap.String("job_id", jobID),
			zap.Int("duration_seconds", seconds),
		)
		t.emit(ctx, Event{JobID: jobID, Type: EventInitialized, Status: StatusPending, Duration: int64(seconds)})
	}

	return stored, created, nil
}

func (t *Tracker) advance(ctx context.Context, jobID string, timeline Timeline) (Status, error) {
	now := t.now()

	next := StatusPending
	if timeline.Done(now) {
		next = StatusCompleted
	}

	stored, err := t.repo.Transition(ctx, jobID, next)
	if err != nil {
		return StatusUnknown, fmt.Errorf("store %s status of %s: %w", next, jobID, err)
	}

	if next == StatusCompleted && stored == StatusCompleted {
		t.logger.Info("job completed",
			zap.String("job_id", jobID),
			zap.Duration("elapsed", timeline.Elapsed(now)),
			zap.Duration("duration", timeline.Duration),
		)
		t.emit(ctx, Event{
			JobID:    jobID,
			Type:     EventCompleted,
			Status:   StatusCompleted,
			Duration: int64(timeline.Duration / time.Second),
		})
	}

	return stored, nil
}

// emit publishes a lifecycle event. Failures are logged only.
func (t *Tracker) emit(ctx context.Context, event Event) {
	event.OccurredAt = t.now()

	if err := t.publish(ctx, &event); err != nil {
		t.logger.Error("failed to publish job event",
			zap.String("job_id", event.JobID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
