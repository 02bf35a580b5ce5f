package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time assertion that PostgresStore satisfies Store.
var _ Store = (*PostgresStore)(nil)

const ddlRuns = `
CREATE TABLE IF NOT EXISTS transcription_runs (
    id            TEXT        PRIMARY KEY,
    input         TEXT        NOT NULL,
    language      TEXT        NOT NULL DEFAULT '',
    generated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    segment_count INTEGER     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transcription_segments (
    id        BIGSERIAL        PRIMARY KEY,
    run_id    TEXT             NOT NULL REFERENCES transcription_runs (id) ON DELETE CASCADE,
    position  INTEGER          NOT NULL,
    speaker   TEXT             NOT NULL,
    start_sec DOUBLE PRECISION NOT NULL,
    end_sec   DOUBLE PRECISION NOT NULL,
    text      TEXT             NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcription_segments_run
    ON transcription_segments (run_id, position);
`

// PostgresStore persists runs into PostgreSQL through a shared
// [pgxpool.Pool]. All operations are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn and ensures the schema
// exists. The caller must call Close when the store is no longer needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlRuns); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveRun inserts the run and all its segments in one transaction and
// returns a database reference for the run.
func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) (string, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO transcription_runs (id, input, language, generated_at, segment_count)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Input, run.Language, run.GeneratedAt, len(run.Segments),
	)
	if err != nil {
		return "", fmt.Errorf("store: insert run %q: %w", run.ID, err)
	}

	batch := &pgx.Batch{}
	for i, seg := range run.Segments {
		batch.Queue(
			`INSERT INTO transcription_segments (run_id, position, speaker, start_sec, end_sec, text)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			run.ID, i, seg.Speaker, seg.Start, seg.End, seg.Text,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("store: insert segments for %q: %w", run.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("store: commit %q: %w", run.ID, err)
	}
	return "postgres:transcription_runs/" + run.ID, nil
}
