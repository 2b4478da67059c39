package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
)

// InsertTransaction appends a ledger entry and bumps the agent's ledger version in one transaction.
func (s *Store) InsertTransaction(ctx context.Context, wtx *models.WalletTransaction) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.inTx(queryCtx, func(tx pgx.Tx) error {
		if err := insertTransaction(queryCtx, tx, wtx); err != nil {
			return err
		}
		return bumpLedgerVersion(queryCtx, tx, wtx.AgentID)
	})
}

func insertTransaction(ctx context.Context, tx pgx.Tx, wtx *models.WalletTransaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO wallet_transactions
			(id, agent_id, amount, kind, status, description, reference_code, admin_notes, signed_delta,
			 created_at, processed_at, admin_id)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12)
	`, wtx.ID, wtx.AgentID, wtx.Amount.String(), string(wtx.Kind), string(wtx.Status), wtx.Description,
		nullIfEmpty(wtx.ReferenceCode), wtx.AdminNotes, decimalArg(wtx.SignedDelta), wtx.CreatedAt, wtx.ProcessedAt, wtx.AdminID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", mapPgError(err))
	}
	return nil
}

// GetTransaction retrieves a ledger entry by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.DB.QueryRow(queryCtx, `SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1`, txID)
	wtx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return wtx, nil
}

// UpdateTransactionStatus processes a pending entry. The status predicate in the
// UPDATE makes two concurrent admins race safely: only one of them sees a row.
func (s *Store) UpdateTransactionStatus(ctx context.Context, txID string, update models.StatusUpdate) (*models.WalletTransaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var updated *models.WalletTransaction
	err := s.inTx(queryCtx, func(tx pgx.Tx) error {
		row := tx.QueryRow(queryCtx, `
			UPDATE wallet_transactions
			SET status = $2, processed_at = $3, admin_id = $4, admin_notes = COALESCE($5, admin_notes)
			WHERE id = $1 AND status = 'pending'
			RETURNING `+transactionColumns,
			txID, string(update.Status), update.ProcessedAt, update.AdminID, update.AdminNotes)

		var err error
		updated, err = scanTransaction(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return stateError(queryCtx, tx, "wallet_transactions", "transaction", txID)
		}
		if err != nil {
			return fmt.Errorf("failed to update transaction status: %w", mapPgError(err))
		}
		return bumpLedgerVersion(queryCtx, tx, updated.AgentID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// QueryTransactionsByAgent lists an agent's ledger entries oldest first, optionally by status.
func (s *Store) QueryTransactionsByAgent(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var statusArg *string
	if status != nil {
		v := string(*status)
		statusArg = &v
	}

	rows, err := s.DB.Query(queryCtx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE agent_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at, id
	`, agentID, statusArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by agent ID: %w", err)
	}
	txs, err := collect(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

// QueryTransactionsByAgents lists the ledger entries of many agents in a single round trip.
func (s *Store) QueryTransactionsByAgents(ctx context.Context, agentIDs []string) ([]models.WalletTransaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.DB.Query(queryCtx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE agent_id = ANY($1)
		ORDER BY agent_id, created_at, id
	`, agentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk query transactions: %w", err)
	}
	txs, err := collect(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

// stateError explains why a conditional UPDATE matched nothing: the row is
// either missing or no longer pending.
func stateError(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, table, what, id string) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM `+table+` WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s status: %w", what, err)
	}
	return fmt.Errorf("%s %s is %s: %w", what, id, status, storage.ErrInvalidState)
}

// nullIfEmpty lets NOT NULL constraints see missing identifiers.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
