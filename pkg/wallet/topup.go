package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopupManager owns the lifecycle of top-up requests.
type TopupManager struct {
	store storage.TopupStore
	sync  *Synchronizer
	now   func() time.Time
}

// NewTopupManager creates a TopupManager.
func NewTopupManager(store storage.TopupStore, sync *Synchronizer) *TopupManager {
	return &TopupManager{store: store, sync: sync, now: sync.now}
}

// CreateRequest records a pending top-up intent for an agent.
func (m *TopupManager) CreateRequest(ctx context.Context, agentID string, amount decimal.Decimal) (*models.TopupRequest, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, &ValidationError{Field: "agent_id", Reason: "must not be empty"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	req := &models.TopupRequest{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Amount:    amount,
		Status:    models.PENDING,
		CreatedAt: m.now(),
	}
	if err := m.store.InsertTopupRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create top-up request: %w", translateStoreError(err))
	}

	slog.InfoContext(ctx, "top-up request created", "request_id", req.ID, "agent_id", agentID, "amount", amount.String())
	return req, nil
}

// Get returns a top-up request.
func (m *TopupManager) Get(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	req, err := m.store.GetTopupRequest(ctx, requestID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return req, nil
}

// ListByAgent returns an agent's top-up requests, oldest first.
func (m *TopupManager) ListByAgent(ctx context.Context, agentID string) ([]models.TopupRequest, error) {
	reqs, err := m.store.ListTopupRequestsByAgent(ctx, agentID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return reqs, nil
}

// Approve approves a pending request. The request update and its topup ledger
// entry are committed together before the agent's balance is synchronized; a
// sync failure is reported on the outcome and does not undo the approval.
func (m *TopupManager) Approve(ctx context.Context, requestID, adminID string) (*Outcome, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, &ValidationError{Field: "admin_id", Reason: "must not be empty"}
	}

	req, err := m.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.PENDING {
		return nil, fmt.Errorf("%w: top-up request %s is already %s", ErrInvalidState, requestID, req.Status)
	}

	now := m.now()
	tx := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       req.AgentID,
		Amount:        req.Amount,
		Kind:          models.KindTopup,
		Status:        models.APPROVED,
		Description:   fmt.Sprintf("Wallet top-up of %s", req.Amount.StringFixed(2)),
		ReferenceCode: NewReferenceCode(models.KindTopup, now),
		CreatedAt:     now,
		ProcessedAt:   &now,
		AdminID:       adminID,
	}
	if err := ValidateTransaction(tx); err != nil {
		return nil, err
	}

	approved, err := m.store.ApproveTopup(ctx, requestID, models.TopupApproval{
		AdminID:     adminID,
		ApprovedAt:  now,
		Transaction: tx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve top-up request %s: %w", requestID, translateStoreError(err))
	}

	slog.InfoContext(ctx, "top-up request approved",
		"request_id", requestID, "agent_id", req.AgentID, "transaction_id", tx.ID, "reference_code", tx.ReferenceCode, "admin_id", adminID)

	out := &Outcome{Status: models.APPROVED, Request: approved, Transaction: tx}
	m.sync.afterCommit(ctx, req.AgentID, out)
	return out, nil
}

// Reject rejects a pending request. No ledger entry is created and the balance is untouched.
func (m *TopupManager) Reject(ctx context.Context, requestID, adminID string) (*Outcome, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, &ValidationError{Field: "admin_id", Reason: "must not be empty"}
	}

	rejected, err := m.store.UpdateTopupRequestStatus(ctx, requestID, models.REJECTED, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject top-up request %s: %w", requestID, translateStoreError(err))
	}

	slog.InfoContext(ctx, "top-up request rejected", "request_id", requestID, "agent_id", rejected.AgentID, "admin_id", adminID)
	return &Outcome{Status: models.REJECTED, Request: rejected}, nil
}

// Delete removes a request that reached a terminal status.
func (m *TopupManager) Delete(ctx context.Context, requestID string) error {
	if err := m.store.DeleteTopupRequest(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete top-up request %s: %w", requestID, translateStoreError(err))
	}
	slog.InfoContext(ctx, "top-up request deleted", "request_id", requestID)
	return nil
}
