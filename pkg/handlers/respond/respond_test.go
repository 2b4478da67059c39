package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Not Found", fmt.Errorf("%w: request r1", wallet.ErrNotFound), http.StatusNotFound},
		{"Invalid State", fmt.Errorf("%w: approved", wallet.ErrInvalidState), http.StatusConflict},
		{"Validation", &wallet.ValidationError{Field: "amount", Reason: "must be positive"}, http.StatusBadRequest},
		{"Duplicate", &wallet.ConstraintViolationError{Category: wallet.CategoryDuplicate}, http.StatusConflict},
		{"Missing Reference", &wallet.ConstraintViolationError{Category: wallet.CategoryMissingReference}, http.StatusUnprocessableEntity},
		{"Sync Delayed", &wallet.TransientSyncError{AgentID: "a", Attempts: 3, Err: errors.New("timeout")}, http.StatusServiceUnavailable},
		{"Internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestError(t *testing.T) {
	t.Run("Internal Details Hidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, httptest.NewRequest(http.MethodGet, "/agents", nil), errors.New("dial tcp 10.0.0.1:5432: refused"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var body api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, wallet.ClassInternal, body.Code)
		assert.NotContains(t, body.Message, "10.0.0.1")
	})

	t.Run("Constraint Message", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, httptest.NewRequest(http.MethodPost, "/topups", nil), &wallet.ConstraintViolationError{Category: wallet.CategoryMissingReference, Constraint: "topup_requests_agent_id_fkey"})

		var body api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, wallet.ClassConstraint, body.Code)
		assert.Equal(t, wallet.CategoryMissingReference.Message(), body.Message)
	})
}

func TestOutcome(t *testing.T) {
	rr := httptest.NewRecorder()
	Outcome(rr, httptest.NewRequest(http.MethodPost, "/", nil), &api.ActionResult{Status: api.Approved, SyncWarning: &api.SyncWarning{Attempts: 3}})
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	Outcome(rr, httptest.NewRequest(http.MethodPost, "/", nil), &api.ActionResult{Status: api.Approved, Synced: true})
	assert.Equal(t, http.StatusOK, rr.Code)
}
