package jobs

import "time"

// Status is the observable state of a simulated job.
type Status string

const (
	// StatusUnknown means no status has been stored for the job yet.
	StatusUnknown   Status = ""
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is one of the stored statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// Timeline is the start time and assigned duration of a job. Both are
// written once, on the first observation of the job.
type Timeline struct {
	StartTime time.Time
	Duration  time.Duration
}

// Elapsed returns how long the job has been running at now.
func (t Timeline) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.StartTime)
}

// Done reports whether the job's duration has passed at now.
func (t Timeline) Done(now time.Time) bool {
	return t.Elapsed(now) >= t.Duration
}
