package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewTransaction describes a ledger entry created directly, outside a top-up request.
type NewTransaction struct {
	AgentID     string
	Amount      decimal.Decimal
	Kind        models.TransactionKind
	Description string
	// SignedDelta is required for admin_adjustment and must match Amount in magnitude.
	SignedDelta *decimal.Decimal
}

// StatusManager approves and rejects pending ledger entries.
type StatusManager struct {
	ledger storage.Ledger
	sync   *Synchronizer
	now    func() time.Time
}

// NewStatusManager creates a StatusManager.
func NewStatusManager(ledger storage.Ledger, sync *Synchronizer) *StatusManager {
	return &StatusManager{ledger: ledger, sync: sync, now: sync.now}
}

// CreatePending validates and records a pending ledger entry. Pending entries do
// not count toward the balance, so no sync is needed.
func (m *StatusManager) CreatePending(ctx context.Context, in NewTransaction) (*models.WalletTransaction, error) {
	now := m.now()
	tx := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       in.AgentID,
		Amount:        in.Amount,
		Kind:          in.Kind,
		Status:        models.PENDING,
		Description:   in.Description,
		ReferenceCode: NewReferenceCode(in.Kind, now),
		SignedDelta:   in.SignedDelta,
		CreatedAt:     now,
	}
	if err := ValidateTransaction(tx); err != nil {
		return nil, err
	}

	if err := m.ledger.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", translateStoreError(err))
	}

	slog.InfoContext(ctx, "pending transaction recorded", "transaction_id", tx.ID, "agent_id", tx.AgentID, "kind", tx.Kind)
	return tx, nil
}

// UpdateStatus moves a pending entry to approved or rejected. Existing admin
// notes are kept when notes is nil. Approval triggers a fail-soft balance sync.
func (m *StatusManager) UpdateStatus(ctx context.Context, txID string, status models.Status, adminID string, notes *string) (*Outcome, error) {
	if status != models.APPROVED && status != models.REJECTED {
		return nil, &ValidationError{Field: "status", Reason: "must be approved or rejected"}
	}
	if adminID == "" {
		return nil, &ValidationError{Field: "admin_id", Reason: "must not be empty"}
	}

	current, err := m.ledger.GetTransaction(ctx, txID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if current.Status != models.PENDING {
		return nil, fmt.Errorf("%w: transaction %s is already %s", ErrInvalidState, txID, current.Status)
	}

	updated, err := m.ledger.UpdateTransactionStatus(ctx, txID, models.StatusUpdate{
		Status:      status,
		AdminID:     adminID,
		AdminNotes:  notes,
		ProcessedAt: m.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", txID, translateStoreError(err))
	}

	slog.InfoContext(ctx, "transaction status updated", "transaction_id", txID, "agent_id", updated.AgentID, "status", status, "admin_id", adminID)

	out := &Outcome{Status: updated.Status, Transaction: updated}
	if status == models.APPROVED {
		m.sync.afterCommit(ctx, updated.AgentID, out)
	}
	return out, nil
}
