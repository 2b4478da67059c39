package app

import (
	"context"
	"testing"

	"github.com/chris/agent-wallet-ledger/pkg/config"
	"github.com/chris/agent-wallet-ledger/pkg/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StorageBackend: config.BackendMemory, SyncMaxAttempts: 1, BatchConcurrency: 2}

	a, err := Build(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.Store{}, a.Store)

	_, err = a.Engine.CreateAgent(ctx, "agent-a", "Agent A")
	require.NoError(t, err)
	req, err := a.Engine.CreateTopupRequest(ctx, "agent-a", decimal.NewFromInt(10))
	require.NoError(t, err)
	out, err := a.Engine.ApproveTopup(ctx, req.ID, "admin")
	require.NoError(t, err)
	assert.True(t, out.Synced)
}

func TestBuildUnknownBackend(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{StorageBackend: "sqlite"})
	assert.Error(t, err)
}
