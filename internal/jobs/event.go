package jobs

import (
	"time"

	"go.uber.org/zap"
)

// TopicEvents is the topic job lifecycle events are published to.
const TopicEvents = "jobs.events"

// EventType names a job lifecycle transition.
type EventType string

const (
	EventInitialized EventType = "initialized"
	EventCompleted   EventType = "completed"
	EventFailed      EventType = "failed"
)

// Event is emitted when a job is initialized or reaches a terminal status.
type Event struct {
	JobID      string    `json:"jobId"`
	Type       EventType `json:"type"`
	Status     Status    `json:"status"`
	Duration   int64     `json:"durationSeconds,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// LogFields identifies the event in structured logs.
func (e *Event) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("job_id", e.JobID),
		zap.String("type", string(e.Type)),
	}
}
