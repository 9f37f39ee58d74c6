package audit

import (
	"context"

	"github.com/serroba/translation-sim/internal/jobs"
)

// Store persists job lifecycle events.
type Store interface {
	SaveJobEvent(ctx context.Context, event *jobs.Event) error
}
