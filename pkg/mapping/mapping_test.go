package mapping

import (
	"errors"
	"testing"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "70.00", FormatAmount(decimal.NewFromInt(70)))
	assert.Equal(t, "0.70", FormatAmount(decimal.RequireFromString("0.7")))
	assert.Equal(t, "-5.13", FormatAmount(decimal.RequireFromString("-5.125")))
}

func TestToApiTransaction(t *testing.T) {
	delta := decimal.NewFromInt(-5)
	tx := &models.WalletTransaction{
		ID:            "tx-1",
		AgentID:       "agent-a",
		Amount:        decimal.NewFromInt(5),
		Kind:          models.KindAdminAdjustment,
		Status:        models.PENDING,
		ReferenceCode: "ADJ-20260101-000000000000",
		SignedDelta:   &delta,
		CreatedAt:     time.Now(),
	}

	out := ToApiTransaction(tx)

	assert.Equal(t, "5.00", out.Amount)
	assert.Equal(t, api.AdminAdjustment, out.Kind)
	require.NotNil(t, out.SignedDelta)
	assert.Equal(t, "-5.00", *out.SignedDelta)
	assert.Nil(t, out.AdminId)
	assert.Nil(t, out.AdminNotes)
}

func TestToDomainNewTransaction(t *testing.T) {
	delta := "-2.50"
	in, err := ToDomainNewTransaction(&api.NewTransaction{AgentId: "agent-a", Amount: "2.5", Kind: api.AdminAdjustment, SignedDelta: &delta})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(in.Amount))
	require.NotNil(t, in.SignedDelta)
	assert.True(t, decimal.RequireFromString("-2.5").Equal(*in.SignedDelta))

	_, err = ToDomainNewTransaction(&api.NewTransaction{AgentId: "agent-a", Amount: "ten", Kind: api.Topup})
	var ve *wallet.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount", ve.Field)
}

func TestToApiActionResult(t *testing.T) {
	out := ToApiActionResult(&wallet.Outcome{
		Status:      models.APPROVED,
		Request:     &models.TopupRequest{ID: "req-1", Amount: decimal.NewFromInt(25), Status: models.APPROVED},
		SyncWarning: &wallet.TransientSyncError{AgentID: "agent-a", Attempts: 3, Err: errors.New("timeout")},
	})

	assert.False(t, out.Synced)
	require.NotNil(t, out.SyncWarning)
	assert.Equal(t, 3, out.SyncWarning.Attempts)
	require.NotNil(t, out.TopupRequest)
	assert.Equal(t, "25.00", out.TopupRequest.Amount)
	assert.Nil(t, out.Transaction)
}

func TestToApiBatchBalances(t *testing.T) {
	out := ToApiBatchBalances(wallet.BatchResult{
		Balances: map[string]decimal.Decimal{"a": decimal.NewFromInt(1), "b": decimal.Zero},
		Failed:   map[string]error{"b": errors.New("timeout")},
		Fallback: true,
	})

	assert.Equal(t, map[string]string{"a": "1.00", "b": "0.00"}, out.Balances)
	require.NotNil(t, out.Failed)
	assert.Equal(t, wallet.ClassInternal, (*out.Failed)["b"])
	assert.True(t, out.Fallback)
}
