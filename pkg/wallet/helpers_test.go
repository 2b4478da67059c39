package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func fastSyncConfig() *SyncConfig {
	return &SyncConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		Multiplier:     2,
		ResyncDelay:    time.Minute,
	}
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewEngine(store, Options{Sync: fastSyncConfig()}), store
}

func seedAgent(t *testing.T, store *memory.Store, agentID string) {
	t.Helper()
	_, err := store.CreateAgent(context.Background(), &models.Agent{ID: agentID, Name: agentID})
	require.NoError(t, err)
}

func entry(agentID string, kind models.TransactionKind, amount string, status models.Status) models.WalletTransaction {
	return models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       agentID,
		Amount:        decimal.RequireFromString(amount),
		Kind:          kind,
		Status:        status,
		ReferenceCode: NewReferenceCode(kind, time.Now()),
		CreatedAt:     time.Now().UTC(),
	}
}

func seedEntries(t *testing.T, store *memory.Store, txs ...models.WalletTransaction) {
	t.Helper()
	for i := range txs {
		require.NoError(t, store.InsertTransaction(context.Background(), &txs[i]))
	}
}

// flakyStore fails cached balance writes a configurable number of times.
type flakyStore struct {
	*memory.Store

	mu          sync.Mutex
	failures    int // remaining failures, negative fails forever
	updateCalls int
}

func (s *flakyStore) UpdateAgentCachedBalance(ctx context.Context, agentID string, balance decimal.Decimal, ledgerVersion int64, syncedAt time.Time) error {
	s.mu.Lock()
	s.updateCalls++
	fail := s.failures != 0
	if s.failures > 0 {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		return errors.New("connection reset by peer")
	}
	return s.Store.UpdateAgentCachedBalance(ctx, agentID, balance, ledgerVersion, syncedAt)
}

func (s *flakyStore) setFailures(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

func (s *flakyStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

// brokenBulkStore fails the bulk ledger read and the per-agent read of selected agents.
type brokenBulkStore struct {
	*memory.Store
	failing map[string]bool
}

func (s *brokenBulkStore) QueryTransactionsByAgents(ctx context.Context, agentIDs []string) ([]models.WalletTransaction, error) {
	return nil, errors.New("bulk read timed out")
}

func (s *brokenBulkStore) QueryTransactionsByAgent(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error) {
	if s.failing[agentID] {
		return nil, errors.New("read timed out")
	}
	return s.Store.QueryTransactionsByAgent(ctx, agentID, status)
}
