// Package store is a persistence adapter over pgx. It exposes the same
// one/all/run/batch shape as the capability-binding vocabulary the rest of
// the configuration follows (DB, VECTORIZE, AI, QUEUE_AI): one prepared
// statement returning at most one row, all returning every row, run for
// statements executed for effect, and batch for grouping several statements
// into a single transaction. The pkg/* stores do not use this package; they
// query a *pgxpool.Pool directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned by One when the query matches no row.
var ErrNoRows = pgx.ErrNoRows

// Store wraps a pgx pool with the one/all/run/batch adapter shape.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Scanner is satisfied by pgx.Row and pgx.Rows; callers pass a closure that
// scans into their own destination struct.
type Scanner interface {
	Scan(dest ...any) error
}

// One runs query and scans the single resulting row via scan. Returns
// ErrNoRows if the query produced no rows.
func (s *Store) One(ctx context.Context, scan func(Scanner) error, query string, args ...any) error {
	row := s.pool.QueryRow(ctx, query, args...)
	if err := scan(row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return fmt.Errorf("store: one: %w", err)
	}
	return nil
}

// All runs query and invokes scan once per row until rows are exhausted.
func (s *Store) All(ctx context.Context, scan func(Scanner) error, query string, args ...any) error {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: all: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("store: all: scan: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: all: %w", err)
	}
	return nil
}

// Run executes a statement for effect and returns the number of rows affected.
func (s *Store) Run(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: run: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Statement is a single query/args pair for a Batch call.
type Statement struct {
	Query string
	Args  []any
}

// Batch runs every statement inside a single transaction, rolling back on
// the first failure, so a group of statements applies all-or-nothing.
func (s *Store) Batch(ctx context.Context, stmts []Statement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: batch: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt.Query, stmt.Args...); err != nil {
			return fmt.Errorf("store: batch: statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: batch: commit: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back if fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: with_tx: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(tx)
}

// Now returns the current time truncated to microsecond precision, matching
// Postgres timestamptz resolution, for callers that stamp rows in Go rather
// than relying on column defaults.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
