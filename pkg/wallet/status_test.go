package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateTransactionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve Counts Toward Balance", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedAgent(t, store, "agent-a")
		seedEntries(t, store, entry("agent-a", models.KindTopup, "40", models.APPROVED))

		tx, err := e.CreatePendingTransaction(ctx, NewTransaction{
			AgentID: "agent-a", Amount: decimal.NewFromInt(15), Kind: models.KindDeduction, Description: "airtime",
		})
		require.NoError(t, err)
		assert.Regexp(t, `^DED-`, tx.ReferenceCode)

		out, err := e.UpdateTransactionStatus(ctx, tx.ID, models.APPROVED, "admin-1", strPtr("checked"))
		require.NoError(t, err)
		assert.Equal(t, models.APPROVED, out.Status)
		assert.True(t, out.Synced)
		assert.Equal(t, "checked", out.Transaction.AdminNotes)
		assert.Equal(t, "admin-1", out.Transaction.AdminID)
		assert.NotNil(t, out.Transaction.ProcessedAt)

		agent, err := store.GetAgent(ctx, "agent-a")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(25).Equal(agent.WalletBalance))
	})

	t.Run("Reject Leaves Balance", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedAgent(t, store, "agent-a")
		pending := entry("agent-a", models.KindRefund, "9", models.PENDING)
		pending.AdminNotes = "original"
		seedEntries(t, store, pending)

		out, err := e.UpdateTransactionStatus(ctx, pending.ID, models.REJECTED, "admin-1", nil)
		require.NoError(t, err)
		assert.False(t, out.Synced)
		assert.Nil(t, out.Sync)
		assert.Equal(t, "original", out.Transaction.AdminNotes)

		balance, err := e.CalculateBalance(ctx, "agent-a")
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("Already Processed", func(t *testing.T) {
		e, store := newTestEngine(t)
		seedAgent(t, store, "agent-a")
		done := entry("agent-a", models.KindTopup, "9", models.APPROVED)
		seedEntries(t, store, done)

		_, err := e.UpdateTransactionStatus(ctx, done.ID, models.REJECTED, "admin-1", nil)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("Unknown Transaction", func(t *testing.T) {
		e, _ := newTestEngine(t)
		_, err := e.UpdateTransactionStatus(ctx, "missing", models.APPROVED, "admin-1", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Invalid Target Status", func(t *testing.T) {
		e, _ := newTestEngine(t)
		for _, status := range []models.Status{models.PENDING, "settled"} {
			_, err := e.UpdateTransactionStatus(ctx, "any", status, "admin-1", nil)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "status %q", status)
			assert.Equal(t, "status", ve.Field)
		}
	})
}

func TestCreatePendingTransactionValidation(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)
	seedAgent(t, store, "agent-a")

	negative := decimal.NewFromInt(-5)
	mismatched := decimal.NewFromInt(3)

	tests := []struct {
		name  string
		in    NewTransaction
		field string
	}{
		{"Zero Amount", NewTransaction{AgentID: "agent-a", Amount: decimal.Zero, Kind: models.KindTopup}, "amount"},
		{"Unknown Kind", NewTransaction{AgentID: "agent-a", Amount: decimal.NewFromInt(1), Kind: "bonus"}, "kind"},
		{"Missing Agent", NewTransaction{Amount: decimal.NewFromInt(1), Kind: models.KindTopup}, "agent_id"},
		{"Adjustment Without Delta", NewTransaction{AgentID: "agent-a", Amount: decimal.NewFromInt(5), Kind: models.KindAdminAdjustment}, "signed_delta"},
		{"Adjustment Delta Mismatch", NewTransaction{AgentID: "agent-a", Amount: decimal.NewFromInt(5), Kind: models.KindAdminAdjustment, SignedDelta: &mismatched}, "signed_delta"},
		{"Delta On Other Kind", NewTransaction{AgentID: "agent-a", Amount: decimal.NewFromInt(5), Kind: models.KindRefund, SignedDelta: &negative}, "signed_delta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreatePendingTransaction(ctx, tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	t.Run("Negative Adjustment", func(t *testing.T) {
		tx, err := e.CreatePendingTransaction(ctx, NewTransaction{
			AgentID: "agent-a", Amount: decimal.NewFromInt(5), Kind: models.KindAdminAdjustment, SignedDelta: &negative,
		})
		require.NoError(t, err)

		_, err = e.UpdateTransactionStatus(ctx, tx.ID, models.APPROVED, "admin-1", nil)
		require.NoError(t, err)

		balance, err := e.CalculateBalance(ctx, "agent-a")
		require.NoError(t, err)
		assert.True(t, negative.Equal(balance))
	})
}
