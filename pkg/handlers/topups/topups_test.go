package topups

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage/memory"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) *TopupsHandler {
	t.Helper()
	store := memory.New()
	_, err := store.CreateAgent(context.Background(), &models.Agent{ID: "agent-a"})
	require.NoError(t, err)
	engine := wallet.NewEngine(store, wallet.Options{Sync: &wallet.SyncConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}})
	return NewTopupsHandler(engine)
}

func createRequest(t *testing.T, h *TopupsHandler, amount string) api.TopupRequest {
	t.Helper()
	body, _ := json.Marshal(api.NewTopupRequest{AgentId: "agent-a", Amount: amount})
	rr := httptest.NewRecorder()
	h.CreateTopupRequest(rr, httptest.NewRequest(http.MethodPost, "/topups", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var req api.TopupRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &req))
	return req
}

func adminAction(t *testing.T, h *TopupsHandler, fn func(http.ResponseWriter, *http.Request, string), id, adminID string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(api.AdminAction{AdminId: adminID})
	rr := httptest.NewRecorder()
	fn(rr, httptest.NewRequest(http.MethodPost, "/topups/"+id, bytes.NewReader(body)), id)
	return rr
}

func TestCreateTopupRequest(t *testing.T) {
	h := newHandler(t)

	req := createRequest(t, h, "25")
	assert.Equal(t, api.Pending, req.Status)
	assert.Equal(t, "25.00", req.Amount)

	tests := []struct {
		name   string
		body   api.NewTopupRequest
		status int
	}{
		{"Negative Amount", api.NewTopupRequest{AgentId: "agent-a", Amount: "-1"}, http.StatusBadRequest},
		{"Malformed Amount", api.NewTopupRequest{AgentId: "agent-a", Amount: "lots"}, http.StatusBadRequest},
		{"Unknown Agent", api.NewTopupRequest{AgentId: "ghost", Amount: "1"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			rr := httptest.NewRecorder()
			h.CreateTopupRequest(rr, httptest.NewRequest(http.MethodPost, "/topups", bytes.NewReader(body)))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestApproveTopupRequest(t *testing.T) {
	h := newHandler(t)
	req := createRequest(t, h, "25")

	rr := adminAction(t, h, h.ApproveTopupRequest, req.Id, "admin-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	var res api.ActionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, api.Approved, res.Status)
	assert.True(t, res.Synced)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, api.Topup, res.Transaction.Kind)
	assert.Regexp(t, `^TOP-\d{8}-[0-9A-F]{12}$`, res.Transaction.ReferenceCode)
	require.NotNil(t, res.Sync)
	assert.Equal(t, "25.00", res.Sync.Balance)

	t.Run("Second Approval Conflicts", func(t *testing.T) {
		rr := adminAction(t, h, h.ApproveTopupRequest, req.Id, "admin-1")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Missing Admin", func(t *testing.T) {
		pending := createRequest(t, h, "1")
		rr := adminAction(t, h, h.ApproveTopupRequest, pending.Id, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unknown Request", func(t *testing.T) {
		rr := adminAction(t, h, h.ApproveTopupRequest, "missing", "admin-1")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRejectAndDeleteTopupRequest(t *testing.T) {
	h := newHandler(t)
	req := createRequest(t, h, "10")

	rr := httptest.NewRecorder()
	h.DeleteTopupRequest(rr, httptest.NewRequest(http.MethodDelete, "/topups/"+req.Id, nil), req.Id)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = adminAction(t, h, h.RejectTopupRequest, req.Id, "admin-2")
	assert.Equal(t, http.StatusOK, rr.Code)
	var res api.ActionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, api.Rejected, res.Status)
	assert.Nil(t, res.Transaction)
	require.NotNil(t, res.TopupRequest)
	require.NotNil(t, res.TopupRequest.ResolvedBy)
	assert.Equal(t, "admin-2", *res.TopupRequest.ResolvedBy)

	rr = httptest.NewRecorder()
	h.DeleteTopupRequest(rr, httptest.NewRequest(http.MethodDelete, "/topups/"+req.Id, nil), req.Id)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.GetTopupRequestById(rr, httptest.NewRequest(http.MethodGet, "/topups/"+req.Id, nil), req.Id)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListTopupRequestsByAgent(t *testing.T) {
	h := newHandler(t)
	createRequest(t, h, "1")
	createRequest(t, h, "2")

	rr := httptest.NewRecorder()
	h.ListTopupRequestsByAgent(rr, httptest.NewRequest(http.MethodGet, "/agents/agent-a/topups", nil), "agent-a")

	assert.Equal(t, http.StatusOK, rr.Code)
	var reqs []api.TopupRequest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reqs))
	assert.Len(t, reqs, 2)
}
