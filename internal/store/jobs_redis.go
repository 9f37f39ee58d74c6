package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/translation-sim/internal/jobs"
)

// transitionScript writes a status unless the stored one is terminal and
// returns the status left in place. A ttl is refreshed on the timeline keys
// too, so a job expires as a whole.
//
// KEYS[1] = status key
// KEYS[2] = start_time key
// KEYS[3] = duration key
// ARGV[1] = new status
// ARGV[2] = ttl in seconds, 0 for none
var transitionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == "completed" or current == "error" then
    return current
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
    redis.call("SET", KEYS[1], ARGV[1], "EX", ttl)
    redis.call("EXPIRE", KEYS[2], ttl)
    redis.call("EXPIRE", KEYS[3], ttl)
else
    redis.call("SET", KEYS[1], ARGV[1])
end
return ARGV[1]
`)

// initializeScript stores a timeline and a pending status only when the
// job has no complete timeline yet. Returns {created, start, duration}.
//
// KEYS[1] = start_time key
// KEYS[2] = duration key
// KEYS[3] = status key
// ARGV[1] = start time, epoch seconds
// ARGV[2] = duration, whole seconds
// ARGV[3] = ttl in seconds, 0 for none
var initializeScript = redis.NewScript(`
local start = redis.call("GET", KEYS[1])
local duration = redis.call("GET", KEYS[2])
if start and duration then
    return {0, start, duration}
end
local ttl = tonumber(ARGV[3])
local function put(key, value)
    if ttl > 0 then
        redis.call("SET", key, value, "EX", ttl)
    else
        redis.call("SET", key, value)
    end
end
put(KEYS[1], ARGV[1])
put(KEYS[2], ARGV[2])
local current = redis.call("GET", KEYS[3])
if current ~= "completed" and current ~= "error" then
    put(KEYS[3], "pending")
end
return {1, ARGV[1], ARGV[2]}
`)

// JobRedisStore is a Redis implementation of jobs.Repository. Each job
// attribute lives under its own key: job:<id>:status, job:<id>:start_time
// and job:<id>:duration.
type JobRedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewJobRedisStore creates a Redis-backed job store. A positive ttl is
// applied to every job key on write.
func NewJobRedisStore(client redis.Cmdable, ttl time.Duration) *JobRedisStore {
	return &JobRedisStore{client: client, ttl: ttl}
}

func statusKey(jobID string) string    { return "job:" + jobID + ":status" }
func startTimeKey(jobID string) string { return "job:" + jobID + ":start_time" }
func durationKey(jobID string) string  { return "job:" + jobID + ":duration" }

func (s *JobRedisStore) Status(ctx context.Context, jobID string) (jobs.Status, error) {
	val, err := s.client.Get(ctx, statusKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.StatusUnknown, nil
		}

		return jobs.StatusUnknown, err
	}

	return jobs.Status(val), nil
}

func (s *JobRedisStore) Transition(ctx context.Context, jobID string, status jobs.Status) (jobs.Status, error) {
	stored, err := transitionScript.Run(ctx, s.client,
		[]string{statusKey(jobID), startTimeKey(jobID), durationKey(jobID)},
		string(status), s.ttlSeconds(),
	).Text()
	if err != nil {
		return jobs.StatusUnknown, err
	}

	return jobs.Status(stored), nil
}

func (s *JobRedisStore) Timeline(ctx context.Context, jobID string) (jobs.Timeline, bool, error) {
	vals, err := s.client.MGet(ctx, startTimeKey(jobID), durationKey(jobID)).Result()
	if err != nil {
		return jobs.Timeline{}, false, err
	}

	start, okStart := vals[0].(string)
	duration, okDuration := vals[1].(string)

	if !okStart || !okDuration || start == "" || duration == "" {
		return jobs.Timeline{}, false, nil
	}

	timeline, err := parseTimeline(start, duration)
	if err != nil {
		return jobs.Timeline{}, false, err
	}

	return timeline, true, nil
}

func (s *JobRedisStore) Initialize(
	ctx context.Context, jobID string, timeline jobs.Timeline,
) (jobs.Timeline, bool, error) {
	res, err := initializeScript.Run(ctx, s.client,
		[]string{startTimeKey(jobID), durationKey(jobID), statusKey(jobID)},
		formatStartTime(timeline.StartTime),
		strconv.FormatInt(int64(timeline.Duration/time.Second), 10),
		s.ttlSeconds(),
	).Slice()
	if err != nil {
		return jobs.Timeline{}, false, err
	}

	if len(res) != 3 {
		return jobs.Timeline{}, false, fmt.Errorf("initialize %s: unexpected reply %v", jobID, res)
	}

	created, _ := res[0].(int64)
	start, _ := res[1].(string)
	duration, _ := res[2].(string)

	stored, err := parseTimeline(start, duration)
	if err != nil {
		return jobs.Timeline{}, false, err
	}

	return stored, created == 1, nil
}

func (s *JobRedisStore) ttlSeconds() int64 {
	return int64(s.ttl / time.Second)
}

// formatStartTime renders t as fractional epoch seconds.
func formatStartTime(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

func parseTimeline(start, duration string) (jobs.Timeline, error) {
	secs, err := strconv.ParseFloat(start, 64)
	if err != nil {
		return jobs.Timeline{}, fmt.Errorf("parse start_time %q: %w", start, err)
	}

	d, err := strconv.ParseInt(duration, 10, 64)
	if err != nil {
		return jobs.Timeline{}, fmt.Errorf("parse duration %q: %w", duration, err)
	}

	return jobs.Timeline{
		StartTime: time.UnixMicro(int64(math.Round(secs * 1e6))),
		Duration:  time.Duration(d) * time.Second,
	}, nil
}

var _ jobs.Repository = (*JobRedisStore)(nil)
