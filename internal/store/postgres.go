package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS conform_runs (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	source_type  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	row_count    INTEGER NOT NULL DEFAULT 0,
	output_path  TEXT NOT NULL DEFAULT '',
	object_key   TEXT NOT NULL DEFAULT '',
	error_code   TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS conform_runs_created_at_idx ON conform_runs (created_at DESC);
`

const runColumns = `id::text, source, source_type, status, row_count, output_path, object_key,
	error_code, error, created_at, finished_at`

// PostgresStore keeps run history in the conform_runs table.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore wraps a pool or transaction.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a pool, verifies it and creates the schema.
func Connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, *PostgresStore, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, s, nil
}

// EnsureSchema creates conform_runs if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create conform_runs: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, run *Run) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conform_runs
			(id, source, source_type, status, row_count, output_path, object_key, error_code, error, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Source, run.SourceType, string(run.Status), run.Rows,
		run.OutputPath, run.ObjectKey, run.ErrorCode, run.Error,
		run.CreatedAt, nullTime(run),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, run *Run) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE conform_runs
		SET source_type = $2, status = $3, row_count = $4, output_path = $5,
			object_key = $6, error_code = $7, error = $8, finished_at = $9
		WHERE id = $1`,
		run.ID, run.SourceType, string(run.Status), run.Rows, run.OutputPath,
		run.ObjectKey, run.ErrorCode, run.Error, nullTime(run),
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRow(ctx, `SELECT `+runColumns+` FROM conform_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+runColumns+` FROM conform_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun scans one row selected with runColumns.
func scanRun(row pgx.Row) (*Run, error) {
	var (
		run        Run
		status     string
		createdAt  pgtype.Timestamptz
		finishedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&run.ID, &run.Source, &run.SourceType, &status, &run.Rows,
		&run.OutputPath, &run.ObjectKey, &run.ErrorCode, &run.Error,
		&createdAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.CreatedAt = createdAt.Time
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func nullTime(run *Run) pgtype.Timestamptz {
	if run.FinishedAt.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: run.FinishedAt, Valid: true}
}
