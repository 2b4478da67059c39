package transactions

import (
	"context"
	"net/http"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/respond"
	"github.com/chris/agent-wallet-ledger/pkg/mapping"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
)

// TransactionService is the part of the engine that records and processes ledger entries.
//
//go:generate mockery --name TransactionService --output ./mocks --outpkg mocks
type TransactionService interface {
	CreatePendingTransaction(ctx context.Context, in wallet.NewTransaction) (*models.WalletTransaction, error)
	GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error)
	UpdateTransactionStatus(ctx context.Context, txID string, status models.Status, adminID string, notes *string) (*wallet.Outcome, error)
}

// TransactionsHandler holds the dependencies for transaction-related handlers.
type TransactionsHandler struct {
	Service TransactionService
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(service TransactionService) *TransactionsHandler {
	return &TransactionsHandler{Service: service}
}

// CreateTransaction records a pending ledger entry.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var newTx api.NewTransaction
	if !respond.Decode(w, r, &newTx) {
		return
	}

	in, err := mapping.ToDomainNewTransaction(&newTx)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	createdTx, err := h.Service.CreatePendingTransaction(r.Context(), in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, mapping.ToApiTransaction(createdTx))
}

// GetTransactionById returns a single ledger entry.
func (h *TransactionsHandler) GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	domainTx, err := h.Service.GetTransaction(r.Context(), transactionId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, mapping.ToApiTransaction(domainTx))
}

// UpdateTransactionStatus approves or rejects a pending ledger entry.
func (h *TransactionsHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request, transactionId string) {
	var update api.StatusUpdate
	if !respond.Decode(w, r, &update) {
		return
	}

	out, err := h.Service.UpdateTransactionStatus(r.Context(), transactionId, models.Status(update.Status), update.AdminId, update.AdminNotes)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Outcome(w, r, mapping.ToApiActionResult(out))
}
