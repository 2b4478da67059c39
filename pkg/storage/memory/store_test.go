package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTx(id, agentID, ref string) *models.WalletTransaction {
	return &models.WalletTransaction{
		ID:            id,
		AgentID:       agentID,
		Amount:        decimal.NewFromInt(10),
		Kind:          models.KindTopup,
		Status:        models.APPROVED,
		ReferenceCode: ref,
		CreatedAt:     time.Now(),
	}
}

func TestInsertTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Bumps Ledger Version", func(t *testing.T) {
		store := New()
		_, err := store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
		require.NoError(t, err)

		require.NoError(t, store.InsertTransaction(ctx, newTx("tx-1", "agent-1", "TOP-1")))

		agent, err := store.GetAgent(ctx, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), agent.LedgerVersion)
	})

	t.Run("Unknown Agent", func(t *testing.T) {
		store := New()
		err := store.InsertTransaction(ctx, newTx("tx-1", "ghost", "TOP-1"))

		var ce *storage.ConstraintError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, storage.ConstraintForeignKey, ce.Kind)
	})

	t.Run("Duplicate Reference", func(t *testing.T) {
		store := New()
		_, _ = store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
		require.NoError(t, store.InsertTransaction(ctx, newTx("tx-1", "agent-1", "TOP-1")))

		err := store.InsertTransaction(ctx, newTx("tx-2", "agent-1", "TOP-1"))

		var ce *storage.ConstraintError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, storage.ConstraintDuplicate, ce.Kind)
		assert.Equal(t, "wallet_transactions_reference_code_key", ce.Constraint)
	})
}

func TestUpdateAgentCachedBalance(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})

	require.NoError(t, store.UpdateAgentCachedBalance(ctx, "agent-1", decimal.NewFromInt(50), 3, time.Now()))

	t.Run("Older Version Rejected", func(t *testing.T) {
		err := store.UpdateAgentCachedBalance(ctx, "agent-1", decimal.NewFromInt(10), 2, time.Now())
		assert.ErrorIs(t, err, storage.ErrStaleBalance)

		agent, _ := store.GetAgent(ctx, "agent-1")
		assert.True(t, agent.WalletBalance.Equal(decimal.NewFromInt(50)))
	})

	t.Run("Same Version Rewrites", func(t *testing.T) {
		assert.NoError(t, store.UpdateAgentCachedBalance(ctx, "agent-1", decimal.NewFromInt(50), 3, time.Now()))
	})

	t.Run("Not Found", func(t *testing.T) {
		err := store.UpdateAgentCachedBalance(ctx, "ghost", decimal.Zero, 1, time.Now())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestApproveTopupIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
	require.NoError(t, store.InsertTransaction(ctx, newTx("tx-1", "agent-1", "TOP-1")))
	require.NoError(t, store.InsertTopupRequest(ctx, &models.TopupRequest{ID: "req-1", AgentID: "agent-1", Amount: decimal.NewFromInt(5), Status: models.PENDING}))

	// Reusing a reference code makes the ledger insert fail.
	_, err := store.ApproveTopup(ctx, "req-1", models.TopupApproval{AdminID: "admin", ApprovedAt: time.Now(), Transaction: newTx("tx-2", "agent-1", "TOP-1")})
	require.Error(t, err)

	req, err := store.GetTopupRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.PENDING, req.Status)
}

func TestDeleteTopupRequest(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.CreateAgent(ctx, &models.Agent{ID: "agent-1"})
	require.NoError(t, store.InsertTopupRequest(ctx, &models.TopupRequest{ID: "req-1", AgentID: "agent-1", Amount: decimal.NewFromInt(5), Status: models.PENDING}))

	assert.ErrorIs(t, store.DeleteTopupRequest(ctx, "req-1"), storage.ErrInvalidState)

	_, err := store.UpdateTopupRequestStatus(ctx, "req-1", models.REJECTED, "admin")
	require.NoError(t, err)
	assert.NoError(t, store.DeleteTopupRequest(ctx, "req-1"))
	assert.ErrorIs(t, store.DeleteTopupRequest(ctx, "req-1"), storage.ErrNotFound)
}
