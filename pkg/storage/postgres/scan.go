package postgres

import (
	"fmt"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, agent_id, amount::text, kind, status, description, reference_code,
	admin_notes, signed_delta::text, created_at, processed_at, admin_id`

const topupColumns = `id, agent_id, amount::text, status, created_at, approved_at, approved_by,
	resolved_by, resolved_at, transaction_id`

const agentColumns = `id, name, wallet_balance::text, ledger_version, synced_version, last_synced_at, created_at`

func scanTransaction(row pgx.Row) (*models.WalletTransaction, error) {
	var (
		tx          models.WalletTransaction
		amount      string
		signedDelta *string
	)
	err := row.Scan(&tx.ID, &tx.AgentID, &amount, &tx.Kind, &tx.Status, &tx.Description, &tx.ReferenceCode,
		&tx.AdminNotes, &signedDelta, &tx.CreatedAt, &tx.ProcessedAt, &tx.AdminID)
	if err != nil {
		return nil, err
	}

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount of transaction %s: %w", tx.ID, err)
	}
	if signedDelta != nil {
		d, err := decimal.NewFromString(*signedDelta)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signed delta of transaction %s: %w", tx.ID, err)
		}
		tx.SignedDelta = &d
	}
	return &tx, nil
}

func scanTopup(row pgx.Row) (*models.TopupRequest, error) {
	var (
		req    models.TopupRequest
		amount string
	)
	err := row.Scan(&req.ID, &req.AgentID, &amount, &req.Status, &req.CreatedAt, &req.ApprovedAt, &req.ApprovedBy,
		&req.ResolvedBy, &req.ResolvedAt, &req.TransactionID)
	if err != nil {
		return nil, err
	}
	if req.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount of top-up request %s: %w", req.ID, err)
	}
	return &req, nil
}

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var (
		agent   models.Agent
		balance string
	)
	err := row.Scan(&agent.ID, &agent.Name, &balance, &agent.LedgerVersion, &agent.SyncedVersion,
		&agent.LastSyncedAt, &agent.CreatedAt)
	if err != nil {
		return nil, err
	}
	if agent.WalletBalance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("failed to parse wallet balance of agent %s: %w", agent.ID, err)
	}
	return &agent, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
