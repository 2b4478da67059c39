package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/scheduler"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/chris/agent-wallet-ledger/pkg/websockets"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SyncConfig controls the synchronizer's retry policy.
type SyncConfig struct {
	// MaxAttempts is the total number of write attempts, including the first.
	MaxAttempts    uint
	InitialBackoff time.Duration
	Multiplier     float64
	// ResyncDelay is how long a deferred resync waits once retries are exhausted.
	ResyncDelay time.Duration
}

// DefaultSyncConfig retries three times in total, waiting 2s and then 4s.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		Multiplier:     2,
		ResyncDelay:    time.Minute,
	}
}

// SyncResult describes a completed synchronization.
type SyncResult struct {
	AgentID       string          `json:"agent_id"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerVersion int64           `json:"ledger_version"`
	Attempts      int             `json:"attempts"`
	// Superseded is set when a balance from a newer ledger version was already
	// stored, so this computation was discarded.
	Superseded bool      `json:"superseded"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SyncReport collects the outcome of synchronizing many agents.
type SyncReport struct {
	Synced []SyncResult
	Failed map[string]error
}

// Synchronizer recomputes an agent's balance from the ledger and writes it into
// the agent's cached balance.
type Synchronizer struct {
	agents      storage.AgentStore
	calculator  *Calculator
	scheduler   scheduler.ResyncScheduler
	publisher   websockets.Publisher
	cfg         SyncConfig
	concurrency int
	now         func() time.Time
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithScheduler enqueues a deferred resync whenever retries are exhausted.
func WithScheduler(s scheduler.ResyncScheduler) SyncOption {
	return func(sy *Synchronizer) { sy.scheduler = s }
}

// WithPublisher announces every stored balance to connected clients.
func WithPublisher(p websockets.Publisher) SyncOption {
	return func(sy *Synchronizer) { sy.publisher = p }
}

// WithSyncConfig overrides the retry policy.
func WithSyncConfig(cfg SyncConfig) SyncOption {
	return func(sy *Synchronizer) { sy.cfg = cfg }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SyncOption {
	return func(sy *Synchronizer) { sy.now = now }
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(agents storage.AgentStore, calculator *Calculator, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		agents:      agents,
		calculator:  calculator,
		publisher:   &websockets.NoOpPublisher{},
		cfg:         DefaultSyncConfig(),
		concurrency: calculator.concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxAttempts == 0 {
		s.cfg.MaxAttempts = 1
	}
	if s.cfg.Multiplier <= 0 {
		s.cfg.Multiplier = 2
	}
	return s
}

// Sync recomputes the balance of agentID and stores it. Transient failures are
// retried with exponential backoff; once retries are exhausted a
// *TransientSyncError is returned and a deferred resync is scheduled. An
// unknown agent fails immediately with ErrNotFound.
func (s *Synchronizer) Sync(ctx context.Context, agentID string) (*SyncResult, error) {
	attempts := 0
	result, err := backoff.Retry(ctx, func() (*SyncResult, error) {
		attempts++
		res, err := s.syncOnce(ctx, agentID)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "balance sync attempt failed", "agent_id", agentID, "attempt", attempts, "error", err)
		return nil, err
	},
		backoff.WithBackOff(s.backOff()),
		backoff.WithMaxTries(s.cfg.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
	)

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			var permanent *backoff.PermanentError
			if errors.As(err, &permanent) {
				err = permanent.Unwrap()
			}
			return nil, err
		}

		syncErr := &TransientSyncError{AgentID: agentID, Attempts: attempts, Err: err}
		slog.ErrorContext(ctx, "balance sync gave up, cached balance may be stale", "agent_id", agentID, "attempts", attempts, "error", err)
		s.scheduleResync(ctx, agentID, syncErr)
		return nil, syncErr
	}

	result.Attempts = attempts
	if !result.Superseded {
		s.publish(ctx, result)
	}
	return result, nil
}

// syncOnce runs one read-compute-write cycle. The ledger version is read before
// the ledger itself, and every store reads the ledger with read-after-write
// consistency, so the computed balance covers at least that version.
func (s *Synchronizer) syncOnce(ctx context.Context, agentID string) (*SyncResult, error) {
	agent, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent: %w", translateStoreError(err))
	}

	balance, err := s.calculator.CalculateBalance(ctx, agentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &SyncResult{
		AgentID:       agentID,
		Balance:       balance,
		LedgerVersion: agent.LedgerVersion,
		SyncedAt:      now,
	}

	err = s.agents.UpdateAgentCachedBalance(ctx, agentID, balance, agent.LedgerVersion, now)
	switch {
	case errors.Is(err, storage.ErrStaleBalance):
		slog.InfoContext(ctx, "newer balance already stored, discarding", "agent_id", agentID, "ledger_version", agent.LedgerVersion)
		result.Superseded = true
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("failed to store cached balance: %w", translateStoreError(err))
	}

	slog.InfoContext(ctx, "cached balance synchronized", "agent_id", agentID, "balance", balance.String(), "ledger_version", agent.LedgerVersion)
	return result, nil
}

// SyncMany synchronizes several agents concurrently. Failures are collected per agent.
func (s *Synchronizer) SyncMany(ctx context.Context, agentIDs []string) SyncReport {
	report := SyncReport{Failed: make(map[string]error)}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range uniqueIDs(agentIDs) {
		g.Go(func() error {
			res, err := s.Sync(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
				return nil
			}
			report.Synced = append(report.Synced, *res)
			return nil
		})
	}
	_ = g.Wait()

	return report
}

// Reconcile synchronizes every agent whose cached balance lags its ledger, or
// every agent when all is set.
func (s *Synchronizer) Reconcile(ctx context.Context, all bool) (SyncReport, error) {
	agents, err := s.agents.ListAgents(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("failed to list agents: %w", translateStoreError(err))
	}

	var ids []string
	for _, a := range agents {
		if all || a.IsStale() {
			ids = append(ids, a.ID)
		}
	}
	slog.InfoContext(ctx, "reconciling cached balances", "agents", len(agents), "selected", len(ids))
	return s.SyncMany(ctx, ids), nil
}

// afterCommit runs the synchronizer once a ledger change is durable and records
// the result on out. Failures never undo the committed change.
func (s *Synchronizer) afterCommit(ctx context.Context, agentID string, out *Outcome) {
	res, err := s.Sync(ctx, agentID)
	if err == nil {
		out.Synced = true
		out.Sync = res
		return
	}

	var syncErr *TransientSyncError
	if !errors.As(err, &syncErr) {
		syncErr = &TransientSyncError{AgentID: agentID, Attempts: 1, Err: err}
	}
	out.SyncWarning = syncErr
}

func (s *Synchronizer) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.Multiplier = s.cfg.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = max(s.cfg.InitialBackoff, time.Minute)
	return b
}

func (s *Synchronizer) scheduleResync(ctx context.Context, agentID string, cause error) {
	if s.scheduler == nil {
		return
	}
	req := &models.ResyncRequest{AgentID: agentID, Reason: cause.Error(), RequestedAt: s.now()}
	if err := s.scheduler.ScheduleResync(ctx, req, s.cfg.ResyncDelay); err != nil {
		slog.ErrorContext(ctx, "failed to schedule deferred resync", "agent_id", agentID, "error", err)
	}
}

func (s *Synchronizer) publish(ctx context.Context, res *SyncResult) {
	msg := websockets.Message{
		Type: websockets.MessageTypeBalanceSynced,
		Payload: websockets.BalanceSyncedPayload{
			AgentID:       res.AgentID,
			Balance:       res.Balance.StringFixed(2),
			LedgerVersion: res.LedgerVersion,
			SyncedAt:      res.SyncedAt,
		},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to publish balance update", "agent_id", res.AgentID, "error", err)
	}
}
