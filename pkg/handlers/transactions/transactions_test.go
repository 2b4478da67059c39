package transactions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/transactions/mocks"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// 1. Setup
		mockService := mocks.NewTransactionService(t)
		handler := NewTransactionsHandler(mockService)

		description := "airtime sale"
		newTx := api.NewTransaction{AgentId: "agent-a", Amount: "12.50", Kind: api.Deduction, Description: &description}
		createdTx := &models.WalletTransaction{
			ID:            uuid.New().String(),
			AgentID:       "agent-a",
			Amount:        decimal.RequireFromString("12.5"),
			Kind:          models.KindDeduction,
			Status:        models.PENDING,
			Description:   description,
			ReferenceCode: "DED-20260101-0A0B0C0D0E0F",
			CreatedAt:     time.Now(),
		}

		// 2. Mock expectations
		mockService.On("CreatePendingTransaction", mock.Anything, mock.MatchedBy(func(in wallet.NewTransaction) bool {
			return in.AgentID == "agent-a" && in.Kind == models.KindDeduction && in.Amount.Equal(decimal.RequireFromString("12.5")) && in.Description == description
		})).Return(createdTx, nil)

		// 3. Execute
		body, _ := json.Marshal(newTx)
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

		// 4. Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		var returned api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Equal(t, createdTx.ID, returned.Id)
		assert.Equal(t, "12.50", returned.Amount)
		assert.Equal(t, api.Pending, returned.Status)
	})

	t.Run("Bad Amount", func(t *testing.T) {
		handler := NewTransactionsHandler(mocks.NewTransactionService(t))

		body, _ := json.Marshal(api.NewTransaction{AgentId: "agent-a", Amount: "12,50", Kind: api.Deduction})
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unknown Agent", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		mockService.On("CreatePendingTransaction", mock.Anything, mock.Anything).
			Return(nil, &wallet.ConstraintViolationError{Category: wallet.CategoryMissingReference, Constraint: "wallet_transactions_agent_id_fkey"})
		handler := NewTransactionsHandler(mockService)

		body, _ := json.Marshal(api.NewTransaction{AgentId: "ghost", Amount: "1", Kind: api.Topup})
		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Bad Request - Invalid JSON", func(t *testing.T) {
		handler := NewTransactionsHandler(mocks.NewTransactionService(t))

		rr := httptest.NewRecorder()
		handler.CreateTransaction(rr, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("not-json")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetTransactionById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		txID := uuid.New().String()
		mockService.On("GetTransaction", mock.Anything, txID).Return(&models.WalletTransaction{ID: txID, Amount: decimal.NewFromInt(3), Status: models.APPROVED}, nil)
		handler := NewTransactionsHandler(mockService)

		rr := httptest.NewRecorder()
		handler.GetTransactionById(rr, httptest.NewRequest(http.MethodGet, "/transactions/"+txID, nil), txID)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), txID)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		mockService.On("GetTransaction", mock.Anything, "missing").Return(nil, fmt.Errorf("%w: transaction missing", wallet.ErrNotFound))
		handler := NewTransactionsHandler(mockService)

		rr := httptest.NewRecorder()
		handler.GetTransactionById(rr, httptest.NewRequest(http.MethodGet, "/transactions/missing", nil), "missing")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateTransactionStatus(t *testing.T) {
	txID := uuid.New().String()
	notes := "verified receipt"
	update := api.StatusUpdate{Status: api.Approved, AdminId: "admin-1", AdminNotes: &notes}

	t.Run("Synced", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		mockService.On("UpdateTransactionStatus", mock.Anything, txID, models.APPROVED, "admin-1", &notes).Return(&wallet.Outcome{
			Status:      models.APPROVED,
			Transaction: &models.WalletTransaction{ID: txID, Status: models.APPROVED, AdminNotes: notes},
			Synced:      true,
			Sync:        &wallet.SyncResult{AgentID: "agent-a", Balance: decimal.NewFromInt(25), Attempts: 1},
		}, nil)
		handler := NewTransactionsHandler(mockService)

		body, _ := json.Marshal(update)
		rr := httptest.NewRecorder()
		handler.UpdateTransactionStatus(rr, httptest.NewRequest(http.MethodPost, "/transactions/"+txID+"/status", bytes.NewReader(body)), txID)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res api.ActionResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.True(t, res.Synced)
		require.NotNil(t, res.Sync)
		assert.Equal(t, "25.00", res.Sync.Balance)
	})

	t.Run("Sync Delayed", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		mockService.On("UpdateTransactionStatus", mock.Anything, txID, models.APPROVED, "admin-1", &notes).Return(&wallet.Outcome{
			Status:      models.APPROVED,
			Transaction: &models.WalletTransaction{ID: txID, Status: models.APPROVED},
			SyncWarning: &wallet.TransientSyncError{AgentID: "agent-a", Attempts: 3, Err: errors.New("throttled")},
		}, nil)
		handler := NewTransactionsHandler(mockService)

		body, _ := json.Marshal(update)
		rr := httptest.NewRecorder()
		handler.UpdateTransactionStatus(rr, httptest.NewRequest(http.MethodPost, "/transactions/"+txID+"/status", bytes.NewReader(body)), txID)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		assert.Contains(t, rr.Body.String(), "sync_warning")
	})

	t.Run("Already Processed", func(t *testing.T) {
		mockService := mocks.NewTransactionService(t)
		mockService.On("UpdateTransactionStatus", mock.Anything, txID, models.APPROVED, "admin-1", &notes).
			Return(nil, fmt.Errorf("%w: transaction is already approved", wallet.ErrInvalidState))
		handler := NewTransactionsHandler(mockService)

		body, _ := json.Marshal(update)
		rr := httptest.NewRecorder()
		handler.UpdateTransactionStatus(rr, httptest.NewRequest(http.MethodPost, "/transactions/"+txID+"/status", bytes.NewReader(body)), txID)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
