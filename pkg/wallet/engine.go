package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/scheduler"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/chris/agent-wallet-ledger/pkg/websockets"
	"github.com/shopspring/decimal"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Scheduler        scheduler.ResyncScheduler
	Publisher        websockets.Publisher
	Sync             *SyncConfig
	BatchConcurrency int
	Now              func() time.Time
}

// Engine wires the calculator, synchronizer and both managers over one store
// and exposes the operations used by the HTTP layer and the lambdas.
type Engine struct {
	store        storage.Storage
	Calculator   *Calculator
	Synchronizer *Synchronizer
	Topups       *TopupManager
	Transactions *StatusManager
}

// NewEngine creates an Engine.
func NewEngine(store storage.Storage, opts Options) *Engine {
	calculator := NewCalculator(store, opts.BatchConcurrency)

	var syncOpts []SyncOption
	if opts.Scheduler != nil {
		syncOpts = append(syncOpts, WithScheduler(opts.Scheduler))
	}
	if opts.Publisher != nil {
		syncOpts = append(syncOpts, WithPublisher(opts.Publisher))
	}
	if opts.Sync != nil {
		syncOpts = append(syncOpts, WithSyncConfig(*opts.Sync))
	}
	if opts.Now != nil {
		syncOpts = append(syncOpts, WithClock(opts.Now))
	}
	synchronizer := NewSynchronizer(store, calculator, syncOpts...)

	return &Engine{
		store:        store,
		Calculator:   calculator,
		Synchronizer: synchronizer,
		Topups:       NewTopupManager(store, synchronizer),
		Transactions: NewStatusManager(store, synchronizer),
	}
}

// AgentView is an agent together with its ledger-derived balance.
type AgentView struct {
	models.Agent
	DerivedBalance decimal.Decimal `json:"derived_balance"`
	// Drift is set when the cached balance disagrees with the ledger.
	Drift bool `json:"drift"`
}

// CreateAgent registers an agent with a zero balance.
func (e *Engine) CreateAgent(ctx context.Context, agentID, name string) (*models.Agent, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	agent, err := e.store.CreateAgent(ctx, &models.Agent{
		ID:            agentID,
		Name:          name,
		WalletBalance: decimal.Zero,
		CreatedAt:     e.Synchronizer.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", translateStoreError(err))
	}
	return agent, nil
}

// GetAgent returns an agent with its cached and derived balances.
func (e *Engine) GetAgent(ctx context.Context, agentID string) (*AgentView, error) {
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	derived, err := e.Calculator.CalculateBalance(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return &AgentView{
		Agent:          *agent,
		DerivedBalance: derived,
		Drift:          !derived.Equal(agent.WalletBalance),
	}, nil
}

// ListAgents returns all agents.
func (e *Engine) ListAgents(ctx context.Context) ([]models.Agent, error) {
	agents, err := e.store.ListAgents(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return agents, nil
}

// CalculateBalance returns the ledger-derived balance of an existing agent.
func (e *Engine) CalculateBalance(ctx context.Context, agentID string) (decimal.Decimal, error) {
	if _, err := e.store.GetAgent(ctx, agentID); err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	return e.Calculator.CalculateBalance(ctx, agentID)
}

// BatchCalculateBalances returns the ledger-derived balances of many agents.
func (e *Engine) BatchCalculateBalances(ctx context.Context, agentIDs []string) BatchResult {
	return e.Calculator.BatchCalculateBalances(ctx, agentIDs)
}

// ListTransactions returns an agent's ledger entries, optionally filtered by status.
func (e *Engine) ListTransactions(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error) {
	if status != nil && !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *status)}
	}
	txs, err := e.store.QueryTransactionsByAgent(ctx, agentID, status)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return txs, nil
}

// GetTransaction returns a ledger entry.
func (e *Engine) GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error) {
	tx, err := e.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return tx, nil
}

// CreatePendingTransaction records a pending ledger entry.
func (e *Engine) CreatePendingTransaction(ctx context.Context, in NewTransaction) (*models.WalletTransaction, error) {
	return e.Transactions.CreatePending(ctx, in)
}

// UpdateTransactionStatus approves or rejects a pending ledger entry.
func (e *Engine) UpdateTransactionStatus(ctx context.Context, txID string, status models.Status, adminID string, notes *string) (*Outcome, error) {
	return e.Transactions.UpdateStatus(ctx, txID, status, adminID, notes)
}

// CreateTopupRequest records a pending top-up request.
func (e *Engine) CreateTopupRequest(ctx context.Context, agentID string, amount decimal.Decimal) (*models.TopupRequest, error) {
	return e.Topups.CreateRequest(ctx, agentID, amount)
}

// GetTopupRequest returns a top-up request.
func (e *Engine) GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	return e.Topups.Get(ctx, requestID)
}

// ListTopupRequests returns an agent's top-up requests.
func (e *Engine) ListTopupRequests(ctx context.Context, agentID string) ([]models.TopupRequest, error) {
	return e.Topups.ListByAgent(ctx, agentID)
}

// ApproveTopup approves a pending top-up request.
func (e *Engine) ApproveTopup(ctx context.Context, requestID, adminID string) (*Outcome, error) {
	return e.Topups.Approve(ctx, requestID, adminID)
}

// RejectTopup rejects a pending top-up request.
func (e *Engine) RejectTopup(ctx context.Context, requestID, adminID string) (*Outcome, error) {
	return e.Topups.Reject(ctx, requestID, adminID)
}

// DeleteTopup deletes a resolved top-up request.
func (e *Engine) DeleteTopup(ctx context.Context, requestID string) error {
	return e.Topups.Delete(ctx, requestID)
}

// Sync refreshes an agent's cached balance.
func (e *Engine) Sync(ctx context.Context, agentID string) (*SyncResult, error) {
	return e.Synchronizer.Sync(ctx, agentID)
}

// Reconcile refreshes stale cached balances, or all of them when all is set.
func (e *Engine) Reconcile(ctx context.Context, all bool) (SyncReport, error) {
	return e.Synchronizer.Reconcile(ctx, all)
}
