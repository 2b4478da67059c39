package topups

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

// TopupService is the part of the engine that manages top-up requests.
type TopupService interface {
	CreateTopupRequest(ctx context.Context, agentID string, amount decimal.Decimal) (*models.TopupRequest, error)
	GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error)
	ListTopupRequests(ctx context.Context, agentID string) ([]models.TopupRequest, error)
	ApproveTopup(ctx context.Context, requestID, adminID string) (*wallet.Outcome, error)
	RejectTopup(ctx context.Context, requestID, adminID string) (*wallet.Outcome, error)
	DeleteTopup(ctx context.Context, requestID string) error
}

// TopupsHandler holds the dependencies for top-up handlers.
type TopupsHandler struct {
	Service TopupService
}

// NewTopupsHandler creates a new TopupsHandler.
func NewTopupsHandler(service TopupService) *TopupsHandler {
	return &TopupsHandler{Service: service}
}

// CreateTopupRequest records a pending top-up request.
func (h *TopupsHandler) CreateTopupRequest(w http.ResponseWriter, r *http.Request) {
	var newReq api.NewTopupRequest
	if !respond.Decode(w, r, &newReq) {
		return
	}

	amount, err := mapping.ParseAmount("amount", newReq.Amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	req, err := h.Service.CreateTopupRequest(r.Context(), newReq.AgentId, amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, mapping.ToApiTopupRequest(req))
}

// GetTopupRequestById returns a single top-up request.
func (h *TopupsHandler) GetTopupRequestById(w http.ResponseWriter, r *http.Request, topupId string) {
	req, err := h.Service.GetTopupRequest(r.Context(), topupId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, mapping.ToApiTopupRequest(req))
}

// ListTopupRequestsByAgent returns an agent's top-up requests.
func (h *TopupsHandler) ListTopupRequestsByAgent(w http.ResponseWriter, r *http.Request, agentId string) {
	reqs, err := h.Service.ListTopupRequests(r.Context(), agentId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	apiReqs := make([]*api.TopupRequest, len(reqs))
	for i := range reqs {
		apiReqs[i] = mapping.ToApiTopupRequest(&reqs[i])
	}
	respond.JSON(w, r, http.StatusOK, apiReqs)
}

// ApproveTopupRequest approves a pending request and credits the agent.
func (h *TopupsHandler) ApproveTopupRequest(w http.ResponseWriter, r *http.Request, topupId string) {
	var action api.AdminAction
	if !respond.Decode(w, r, &action) {
		return
	}

	out, err := h.Service.ApproveTopup(r.Context(), topupId, action.AdminId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Outcome(w, r, mapping.ToApiActionResult(out))
}

// RejectTopupRequest rejects a pending request.
func (h *TopupsHandler) RejectTopupRequest(w http.ResponseWriter, r *http.Request, topupId string) {
	var action api.AdminAction
	if !respond.Decode(w, r, &action) {
		return
	}

	out, err := h.Service.RejectTopup(r.Context(), topupId, action.AdminId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Outcome(w, r, mapping.ToApiActionResult(out))
}

// DeleteTopupRequest deletes an approved or rejected request.
func (h *TopupsHandler) DeleteTopupRequest(w http.ResponseWriter, r *http.Request, topupId string) {
	if err := h.Service.DeleteTopup(r.Context(), topupId); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
