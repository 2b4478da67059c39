// Package memory provides an in-process implementation of the storage interfaces.
// It enforces the same integrity rules as the database backends and is used for
// local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

// Store implements storage.Storage with maps guarded by a single mutex.
type Store struct {
	mu           sync.RWMutex
	agents       map[string]*models.Agent
	transactions map[string]*models.WalletTransaction
	references   map[string]string
	topups       map[string]*models.TopupRequest
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		agents:       make(map[string]*models.Agent),
		transactions: make(map[string]*models.WalletTransaction),
		references:   make(map[string]string),
		topups:       make(map[string]*models.TopupRequest),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// CreateAgent registers an agent with an empty cached balance.
func (s *Store) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent.ID == "" {
		return nil, &storage.ConstraintError{Kind: storage.ConstraintNotNull, Constraint: "agents.id", Err: fmt.Errorf("agent id is empty")}
	}
	if _, ok := s.agents[agent.ID]; ok {
		return nil, &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "agents_pkey", Err: fmt.Errorf("agent %s already exists", agent.ID)}
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}
	stored := *agent
	s.agents[agent.ID] = &stored
	return copyAgent(&stored), nil
}

func (s *Store) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
	}
	return copyAgent(agent), nil
}

func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]models.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, *copyAgent(a))
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

func (s *Store) UpdateAgentCachedBalance(ctx context.Context, agentID string, balance decimal.Decimal, ledgerVersion int64, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
	}
	if agent.SyncedVersion > ledgerVersion {
		return fmt.Errorf("agent %s synced at version %d, write from version %d: %w", agentID, agent.SyncedVersion, ledgerVersion, storage.ErrStaleBalance)
	}
	agent.WalletBalance = balance
	agent.SyncedVersion = ledgerVersion
	at := syncedAt
	agent.LastSyncedAt = &at
	return nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertTransactionLocked(tx)
}

func (s *Store) insertTransactionLocked(tx *models.WalletTransaction) error {
	switch {
	case tx.ID == "":
		return &storage.ConstraintError{Kind: storage.ConstraintNotNull, Constraint: "wallet_transactions.id", Err: fmt.Errorf("transaction id is empty")}
	case tx.ReferenceCode == "":
		return &storage.ConstraintError{Kind: storage.ConstraintNotNull, Constraint: "wallet_transactions.reference_code", Err: fmt.Errorf("reference code is empty")}
	}
	agent, ok := s.agents[tx.AgentID]
	if !ok {
		return &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Constraint: "wallet_transactions_agent_id_fkey", Err: fmt.Errorf("agent %s does not exist", tx.AgentID)}
	}
	if _, ok := s.transactions[tx.ID]; ok {
		return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "wallet_transactions_pkey", Err: fmt.Errorf("transaction %s already exists", tx.ID)}
	}
	if _, ok := s.references[tx.ReferenceCode]; ok {
		return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "wallet_transactions_reference_code_key", Err: fmt.Errorf("reference code %s already used", tx.ReferenceCode)}
	}

	s.transactions[tx.ID] = copyTransaction(tx)
	s.references[tx.ReferenceCode] = tx.ID
	agent.LedgerVersion++
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	return copyTransaction(tx), nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, txID string, update models.StatusUpdate) (*models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	if tx.Status != models.PENDING {
		return nil, fmt.Errorf("transaction %s is %s: %w", txID, tx.Status, storage.ErrInvalidState)
	}

	tx.Status = update.Status
	processedAt := update.ProcessedAt
	tx.ProcessedAt = &processedAt
	tx.AdminID = update.AdminID
	if update.AdminNotes != nil {
		tx.AdminNotes = *update.AdminNotes
	}
	if agent, ok := s.agents[tx.AgentID]; ok {
		agent.LedgerVersion++
	}
	return copyTransaction(tx), nil
}

func (s *Store) QueryTransactionsByAgent(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []models.WalletTransaction
	for _, tx := range s.transactions {
		if tx.AgentID != agentID {
			continue
		}
		if status != nil && tx.Status != *status {
			continue
		}
		txs = append(txs, *copyTransaction(tx))
	}
	sortByCreatedAt(txs)
	return txs, nil
}

func (s *Store) QueryTransactionsByAgents(ctx context.Context, agentIDs []string) ([]models.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(agentIDs))
	for _, id := range agentIDs {
		wanted[id] = struct{}{}
	}
	var txs []models.WalletTransaction
	for _, tx := range s.transactions {
		if _, ok := wanted[tx.AgentID]; ok {
			txs = append(txs, *copyTransaction(tx))
		}
	}
	sortByCreatedAt(txs)
	return txs, nil
}

func (s *Store) InsertTopupRequest(ctx context.Context, req *models.TopupRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[req.AgentID]; !ok {
		return &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Constraint: "topup_requests_agent_id_fkey", Err: fmt.Errorf("agent %s does not exist", req.AgentID)}
	}
	if _, ok := s.topups[req.ID]; ok {
		return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "topup_requests_pkey", Err: fmt.Errorf("top-up request %s already exists", req.ID)}
	}
	stored := *req
	s.topups[req.ID] = &stored
	return nil
}

func (s *Store) GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.topups[requestID]
	if !ok {
		return nil, fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
	}
	stored := *req
	return &stored, nil
}

func (s *Store) ListTopupRequestsByAgent(ctx context.Context, agentID string) ([]models.TopupRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reqs []models.TopupRequest
	for _, req := range s.topups {
		if req.AgentID == agentID {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs, nil
}

func (s *Store) ApproveTopup(ctx context.Context, requestID string, approval models.TopupApproval) (*models.TopupRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.topups[requestID]
	if !ok {
		return nil, fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
	}
	if req.Status != models.PENDING {
		return nil, fmt.Errorf("top-up request %s is %s: %w", requestID, req.Status, storage.ErrInvalidState)
	}
	// The ledger insert runs first so a constraint failure leaves the request untouched.
	if err := s.insertTransactionLocked(approval.Transaction); err != nil {
		return nil, err
	}

	at := approval.ApprovedAt
	req.Status = models.APPROVED
	req.ApprovedAt = &at
	req.ApprovedBy = approval.AdminID
	req.ResolvedBy = approval.AdminID
	req.ResolvedAt = &at
	req.TransactionID = approval.Transaction.ID
	stored := *req
	return &stored, nil
}

func (s *Store) UpdateTopupRequestStatus(ctx context.Context, requestID string, status models.Status, adminID string) (*models.TopupRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.topups[requestID]
	if !ok {
		return nil, fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
	}
	if req.Status != models.PENDING {
		return nil, fmt.Errorf("top-up request %s is %s: %w", requestID, req.Status, storage.ErrInvalidState)
	}
	now := time.Now().UTC()
	req.Status = status
	req.ApprovedBy = adminID
	req.ResolvedBy = adminID
	req.ResolvedAt = &now
	stored := *req
	return &stored, nil
}

func (s *Store) DeleteTopupRequest(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.topups[requestID]
	if !ok {
		return fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
	}
	if req.Status == models.PENDING {
		return fmt.Errorf("top-up request %s is pending: %w", requestID, storage.ErrInvalidState)
	}
	delete(s.topups, requestID)
	return nil
}

func copyAgent(a *models.Agent) *models.Agent {
	c := *a
	if a.LastSyncedAt != nil {
		t := *a.LastSyncedAt
		c.LastSyncedAt = &t
	}
	return &c
}

func copyTransaction(tx *models.WalletTransaction) *models.WalletTransaction {
	c := *tx
	if tx.SignedDelta != nil {
		d := *tx.SignedDelta
		c.SignedDelta = &d
	}
	if tx.ProcessedAt != nil {
		t := *tx.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func sortByCreatedAt(txs []models.WalletTransaction) {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
}
