package agents

import (
	"context"
	"net/http"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/respond"
	"github.com/chris/agent-wallet-ledger/pkg/mapping"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
)

// AgentService is the part of the engine the agent handlers use.
type AgentService interface {
	CreateAgent(ctx context.Context, agentID, name string) (*models.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*wallet.AgentView, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	Sync(ctx context.Context, agentID string) (*wallet.SyncResult, error)
	Reconcile(ctx context.Context, all bool) (wallet.SyncReport, error)
}

// AgentsHandler holds the dependencies for agent-related handlers.
type AgentsHandler struct {
	Service AgentService
}

// NewAgentsHandler creates a new AgentsHandler.
func NewAgentsHandler(service AgentService) *AgentsHandler {
	return &AgentsHandler{Service: service}
}

// CreateAgent registers a new agent with a zero balance.
func (h *AgentsHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var newAgent api.NewAgent
	if !respond.Decode(w, r, &newAgent) {
		return
	}

	agent, err := h.Service.CreateAgent(r.Context(), newAgent.Id, newAgent.Name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, mapping.ToApiAgent(agent))
}

// ListAgents returns all agents with their cached balances.
func (h *AgentsHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	domainAgents, err := h.Service.ListAgents(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	apiAgents := make([]*api.Agent, len(domainAgents))
	for i := range domainAgents {
		apiAgents[i] = mapping.ToApiAgent(&domainAgents[i])
	}
	respond.JSON(w, r, http.StatusOK, apiAgents)
}

// GetAgentById returns an agent with both its cached and ledger-derived balance.
func (h *AgentsHandler) GetAgentById(w http.ResponseWriter, r *http.Request, agentId string) {
	view, err := h.Service.GetAgent(r.Context(), agentId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, mapping.ToApiAgentView(view))
}

// SyncAgentBalance recomputes an agent's cached balance from the ledger.
func (h *AgentsHandler) SyncAgentBalance(w http.ResponseWriter, r *http.Request, agentId string) {
	res, err := h.Service.Sync(r.Context(), agentId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, mapping.ToApiSyncResult(res))
}

// ReconcileBalances synchronizes stale cached balances, or all of them.
func (h *AgentsHandler) ReconcileBalances(w http.ResponseWriter, r *http.Request, params api.ReconcileBalancesParams) {
	all := params.All != nil && *params.All

	report, err := h.Service.Reconcile(r.Context(), all)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, mapping.ToApiReconcileReport(report))
}
