package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/translation-sim/internal/jobs"
)

const createJobEvents = `
	CREATE TABLE IF NOT EXISTS job_events (
		id               BIGSERIAL PRIMARY KEY,
		job_id           TEXT        NOT NULL,
		event_type       TEXT        NOT NULL,
		status           TEXT        NOT NULL,
		duration_seconds BIGINT,
		occurred_at      TIMESTAMPTZ NOT NULL,
		recorded_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS job_events_job_id_idx ON job_events (job_id, occurred_at);
`

// PostgresStore writes job events to the job_events table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed audit store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the job_events table when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, createJobEvents)

	return err
}

func (p *PostgresStore) SaveJobEvent(ctx context.Context, event *jobs.Event) error {
	query := `
		INSERT INTO job_events (job_id, event_type, status, duration_seconds, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		event.JobID,
		string(event.Type),
		string(event.Status),
		nullableDuration(event.Duration),
		event.OccurredAt,
	)

	return err
}

func nullableDuration(seconds int64) *int64 {
	if seconds == 0 {
		return nil
	}

	return &seconds
}
