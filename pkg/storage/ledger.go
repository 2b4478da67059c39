package storage

import (
	"context"

	"github.com/chris/agent-wallet-ledger/pkg/models"
)

// LedgerReader defines the read side of the wallet ledger.
type LedgerReader interface {
	// GetTransaction retrieves a ledger entry by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error)

	// QueryTransactionsByAgent retrieves an agent's ledger entries, optionally filtered by status.
	// The read must observe every entry committed before it started.
	QueryTransactionsByAgent(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error)

	// QueryTransactionsByAgents retrieves the ledger entries of many agents using bulk reads,
	// with the same consistency as QueryTransactionsByAgent.
	QueryTransactionsByAgents(ctx context.Context, agentIDs []string) ([]models.WalletTransaction, error)
}

// LedgerWriter defines the write side of the wallet ledger. Every successful write
// bumps the owning agent's ledger version.
type LedgerWriter interface {
	// InsertTransaction appends a new entry. Duplicate ids or reference codes and
	// unknown agents are reported as *ConstraintError.
	InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error

	// UpdateTransactionStatus processes a pending entry and returns it as stored.
	UpdateTransactionStatus(ctx context.Context, txID string, update models.StatusUpdate) (*models.WalletTransaction, error)
}

// Ledger combines the reader and writer interfaces.
type Ledger interface {
	LedgerReader
	LedgerWriter
}
