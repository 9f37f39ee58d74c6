package audit

import (
	"context"

	"github.com/serroba/translation-sim/internal/jobs"
	"github.com/serroba/translation-sim/internal/messaging"
	"go.uber.org/zap"
)

// NewHandler returns a message handler that writes job events to store.
// Events without a job id or with an unknown type are logged and acked so
// they do not block the stream.
func NewHandler(store Store, logger *zap.Logger) messaging.Handler[jobs.Event] {
	return func(ctx context.Context, event *jobs.Event) error {
		if event.JobID == "" || !knownType(event.Type) {
			logger.Warn("dropping malformed job event",
				zap.String("job_id", event.JobID),
				zap.String("type", string(event.Type)),
			)

			return nil
		}

		return store.SaveJobEvent(ctx, event)
	}
}

func knownType(t jobs.EventType) bool {
	switch t {
	case jobs.EventInitialized, jobs.EventCompleted, jobs.EventFailed:
		return true
	default:
		return false
	}
}
