package ledger

import (
	"context"
	"net/http"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/respond"
	"github.com/chris/agent-wallet-ledger/pkg/mapping"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/shopspring/decimal"
)

// maxBatchAgents bounds the number of agents in one batch balance request.
const maxBatchAgents = 500

// LedgerService is the read side of the engine.
//
//go:generate mockery --name LedgerService --output ./mocks --outpkg mocks
type LedgerService interface {
	CalculateBalance(ctx context.Context, agentID string) (decimal.Decimal, error)
	BatchCalculateBalances(ctx context.Context, agentIDs []string) wallet.BatchResult
	ListTransactions(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error)
}

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Service LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{Service: service}
}

// GetAgentBalance returns the balance derived from an agent's approved ledger entries.
func (h *LedgerHandler) GetAgentBalance(w http.ResponseWriter, r *http.Request, agentId string) {
	balance, err := h.Service.CalculateBalance(r.Context(), agentId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, api.Balance{AgentId: agentId, Balance: mapping.FormatAmount(balance)})
}

// BatchCalculateBalances returns the derived balances of several agents.
func (h *LedgerHandler) BatchCalculateBalances(w http.ResponseWriter, r *http.Request) {
	var req api.BatchBalanceRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if len(req.AgentIds) > maxBatchAgents {
		respond.Error(w, r, &wallet.ValidationError{Field: "agent_ids", Reason: "too many agents in one request"})
		return
	}

	res := h.Service.BatchCalculateBalances(r.Context(), req.AgentIds)
	respond.JSON(w, r, http.StatusOK, mapping.ToApiBatchBalances(res))
}

// ListTransactionsByAgent returns an agent's ledger entries, optionally filtered by status.
func (h *LedgerHandler) ListTransactionsByAgent(w http.ResponseWriter, r *http.Request, agentId string, params api.ListTransactionsByAgentParams) {
	var status *models.Status
	if params.Status != nil {
		s := models.Status(*params.Status)
		status = &s
	}

	domainTxs, err := h.Service.ListTransactions(r.Context(), agentId, status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	apiTxs := make([]*api.Transaction, len(domainTxs))
	for i := range domainTxs {
		apiTxs[i] = mapping.ToApiTransaction(&domainTxs[i])
	}
	respond.JSON(w, r, http.StatusOK, apiTxs)
}
