package storage

import (
	"context"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// AgentStore defines access to the agent records whose cached balance this service owns.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)

	// UpdateAgentCachedBalance writes balance as computed from ledgerVersion. The write
	// is rejected with ErrStaleBalance when the agent already holds a balance computed
	// from a newer ledger version.
	UpdateAgentCachedBalance(ctx context.Context, agentID string, balance decimal.Decimal, ledgerVersion int64, syncedAt time.Time) error
}
