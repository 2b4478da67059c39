package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
)

// InsertTopupRequest stores a new request; an unknown agent fails the foreign key.
func (s *Store) InsertTopupRequest(ctx context.Context, req *models.TopupRequest) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.DB.Exec(queryCtx, `
		INSERT INTO topup_requests (id, agent_id, amount, status, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5)
	`, nullIfEmpty(req.ID), req.AgentID, req.Amount.String(), string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert top-up request: %w", mapPgError(err))
	}
	return nil
}

// GetTopupRequest retrieves a top-up request by its ID.
func (s *Store) GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := scanTopup(s.DB.QueryRow(queryCtx, `SELECT `+topupColumns+` FROM topup_requests WHERE id = $1`, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get top-up request: %w", err)
	}
	return req, nil
}

// ListTopupRequestsByAgent lists an agent's requests, oldest first.
func (s *Store) ListTopupRequestsByAgent(ctx context.Context, agentID string) ([]models.TopupRequest, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.DB.Query(queryCtx, `
		SELECT `+topupColumns+` FROM topup_requests WHERE agent_id = $1 ORDER BY created_at, id
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query top-up requests by agent ID: %w", err)
	}
	reqs, err := collect(rows, scanTopup)
	if err != nil {
		return nil, fmt.Errorf("failed to read top-up requests: %w", err)
	}
	return reqs, nil
}

// ApproveTopup locks the request, inserts its ledger entry and marks it approved
// in one transaction.
func (s *Store) ApproveTopup(ctx context.Context, requestID string, approval models.TopupApproval) (*models.TopupRequest, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var approved *models.TopupRequest
	err := s.inTx(queryCtx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(queryCtx, `SELECT status FROM topup_requests WHERE id = $1 FOR UPDATE`, requestID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock top-up request: %w", err)
		}
		if models.Status(status) != models.PENDING {
			return fmt.Errorf("top-up request %s is %s: %w", requestID, status, storage.ErrInvalidState)
		}

		if err := insertTransaction(queryCtx, tx, approval.Transaction); err != nil {
			return err
		}
		if err := bumpLedgerVersion(queryCtx, tx, approval.Transaction.AgentID); err != nil {
			return err
		}

		approved, err = scanTopup(tx.QueryRow(queryCtx, `
			UPDATE topup_requests
			SET status = 'approved', approved_at = $2, approved_by = $3, resolved_at = $2, resolved_by = $3,
				transaction_id = $4
			WHERE id = $1
			RETURNING `+topupColumns,
			requestID, approval.ApprovedAt, approval.AdminID, approval.Transaction.ID))
		if err != nil {
			return fmt.Errorf("failed to approve top-up request: %w", mapPgError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// UpdateTopupRequestStatus resolves a pending request without touching the ledger.
func (s *Store) UpdateTopupRequestStatus(ctx context.Context, requestID string, status models.Status, adminID string) (*models.TopupRequest, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := scanTopup(s.DB.QueryRow(queryCtx, `
		UPDATE topup_requests
		SET status = $2, approved_by = $3, resolved_by = $3, resolved_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+topupColumns,
		requestID, string(status), adminID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, stateError(queryCtx, s.DB, "topup_requests", "top-up request", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update top-up request status: %w", mapPgError(err))
	}
	return req, nil
}

// DeleteTopupRequest removes a resolved request.
func (s *Store) DeleteTopupRequest(ctx context.Context, requestID string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.DB.Exec(queryCtx, `DELETE FROM topup_requests WHERE id = $1 AND status <> 'pending'`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete top-up request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return stateError(queryCtx, s.DB, "topup_requests", "top-up request", requestID)
	}
	return nil
}
