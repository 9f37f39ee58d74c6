package store

import (
	"context"

	"github.com/serroba/translation-sim/internal/jobs"
	"go.uber.org/zap"
)

// Noop is an audit.Store that only logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a log-only audit store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveJobEvent(_ context.Context, event *jobs.Event) error {
	n.logger.Info("job event received",
		zap.String("job_id", event.JobID),
		zap.String("type", string(event.Type)),
		zap.String("status", string(event.Status)),
		zap.Int64("duration", event.Duration),
		zap.Time("occurred_at", event.OccurredAt),
	)

	return nil
}
