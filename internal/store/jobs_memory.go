package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/translation-sim/internal/jobs"
)

type jobRecord struct {
	status      jobs.Status
	timeline    jobs.Timeline
	hasTimeline bool
	expiresAt   time.Time
}

// JobMemoryStore is an in-memory implementation of jobs.Repository.
type JobMemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*jobRecord
	ttl  time.Duration
	now  func() time.Time
}

// JobMemoryOption configures a JobMemoryStore.
type JobMemoryOption func(*JobMemoryStore)

// WithJobClock sets the clock used for expiry.
func WithJobClock(now func() time.Time) JobMemoryOption {
	return func(s *JobMemoryStore) {
		s.now = now
	}
}

// NewJobMemoryStore creates a new in-memory job store. A positive ttl
// expires a job that has not been written for that long.
func NewJobMemoryStore(ttl time.Duration, opts ...JobMemoryOption) *JobMemoryStore {
	s := &JobMemoryStore{
		jobs: make(map[string]*jobRecord),
		ttl:  ttl,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// lookup returns the live record of jobID. Callers hold s.mu.
func (s *JobMemoryStore) lookup(jobID string) (*jobRecord, bool) {
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}

	if !rec.expiresAt.IsZero() && !s.now().Before(rec.expiresAt) {
		delete(s.jobs, jobID)

		return nil, false
	}

	return rec, true
}

// upsert returns the record of jobID, creating it if needed, with its
// expiry refreshed. Callers hold s.mu.
func (s *JobMemoryStore) upsert(jobID string) *jobRecord {
	rec, ok := s.lookup(jobID)
	if !ok {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}

	if s.ttl > 0 {
		rec.expiresAt = s.now().Add(s.ttl)
	}

	return rec
}

func (s *JobMemoryStore) Status(_ context.Context, jobID string) (jobs.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lookup(jobID)
	if !ok {
		return jobs.StatusUnknown, nil
	}

	return rec.status, nil
}

func (s *JobMemoryStore) Transition(_ context.Context, jobID string, status jobs.Status) (jobs.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.lookup(jobID); ok && rec.status.Terminal() {
		return rec.status, nil
	}

	rec := s.upsert(jobID)
	rec.status = status

	return status, nil
}

func (s *JobMemoryStore) Timeline(_ context.Context, jobID string) (jobs.Timeline, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lookup(jobID)
	if !ok || !rec.hasTimeline {
		return jobs.Timeline{}, false, nil
	}

	return rec.timeline, true, nil
}

func (s *JobMemoryStore) Initialize(
	_ context.Context, jobID string, timeline jobs.Timeline,
) (jobs.Timeline, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.lookup(jobID); ok && rec.hasTimeline {
		return rec.timeline, false, nil
	}

	rec := s.upsert(jobID)
	rec.timeline = timeline
	rec.hasTimeline = true

	if !rec.status.Terminal() {
		rec.status = jobs.StatusPending
	}

	return timeline, true, nil
}

// Ping always succeeds; it lets the memory store stand in for Redis in
// readiness checks.
func (s *JobMemoryStore) Ping(context.Context) error {
	return nil
}

var _ jobs.Repository = (*JobMemoryStore)(nil)
