// Package postgres implements the storage interfaces on PostgreSQL through pgx.
// Monetary columns are NUMERIC and cross the driver boundary as text so no
// value is ever routed through float64.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const queryTimeout = 5 * time.Second

// DB is the subset of *pgxpool.Pool used by the Store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements storage.Storage on PostgreSQL.
type Store struct {
	DB DB
}

// New creates a Store on an existing pool.
func New(db DB) *Store {
	return &Store{DB: db}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Connect opens a connection pool and verifies it is reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPgError(err))
	}
	return nil
}

// bumpLedgerVersion records that the agent's ledger changed.
func bumpLedgerVersion(ctx context.Context, tx pgx.Tx, agentID string) error {
	tag, err := tx.Exec(ctx, `UPDATE agents SET ledger_version = ledger_version + 1 WHERE id = $1`, agentID)
	if err != nil {
		return fmt.Errorf("failed to bump ledger version: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
	}
	return nil
}
