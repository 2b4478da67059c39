// Package api defines the wire types of the admin HTTP API and binds its routes
// to a ServerInterface on a chi router. It follows the layout of oapi-codegen's
// chi-server output and uses the oapi-codegen runtime for parameter binding, but
// it is maintained by hand.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Defines values for TransactionKind.
const (
	AdminAdjustment     TransactionKind = "admin_adjustment"
	Commission          TransactionKind = "commission"
	CommissionDeposit   TransactionKind = "commission_deposit"
	Deduction           TransactionKind = "deduction"
	Refund              TransactionKind = "refund"
	Topup               TransactionKind = "topup"
	WithdrawalDeduction TransactionKind = "withdrawal_deduction"
)

// Defines values for Status.
const (
	Approved Status = "approved"
	Pending  Status = "pending"
	Rejected Status = "rejected"
)

// ActionResult defines model for ActionResult.
type ActionResult struct {
	Status       Status        `json:"status"`
	Sync         *SyncResult   `json:"sync,omitempty"`
	SyncWarning  *SyncWarning  `json:"sync_warning,omitempty"`
	Synced       bool          `json:"synced"`
	TopupRequest *TopupRequest `json:"topup_request,omitempty"`
	Transaction  *Transaction  `json:"transaction,omitempty"`
}

// AdminAction defines model for AdminAction.
type AdminAction struct {
	AdminId string `json:"admin_id"`
}

// Agent defines model for Agent.
type Agent struct {
	CreatedAt      time.Time  `json:"created_at"`
	DerivedBalance *string    `json:"derived_balance,omitempty"`
	Drift          *bool      `json:"drift,omitempty"`
	Id             string     `json:"id"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	LedgerVersion  int64      `json:"ledger_version"`
	Name           string     `json:"name"`
	SyncedVersion  int64      `json:"synced_version"`
	WalletBalance  string     `json:"wallet_balance"`
}

// Balance defines model for Balance.
type Balance struct {
	AgentId string `json:"agent_id"`
	Balance string `json:"balance"`
}

// BatchBalanceRequest defines model for BatchBalanceRequest.
type BatchBalanceRequest struct {
	AgentIds []string `json:"agent_ids"`
}

// BatchBalanceResponse defines model for BatchBalanceResponse.
type BatchBalanceResponse struct {
	Balances map[string]string  `json:"balances"`
	Failed   *map[string]string `json:"failed,omitempty"`
	Fallback bool               `json:"fallback"`
}

// Error defines model for Error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAgent defines model for NewAgent.
type NewAgent struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// NewTopupRequest defines model for NewTopupRequest.
type NewTopupRequest struct {
	AgentId string `json:"agent_id"`
	Amount  string `json:"amount"`
}

// NewTransaction defines model for NewTransaction.
type NewTransaction struct {
	AgentId     string          `json:"agent_id"`
	Amount      string          `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Kind        TransactionKind `json:"kind"`
	SignedDelta *string         `json:"signed_delta,omitempty"`
}

// ReconcileReport defines model for ReconcileReport.
type ReconcileReport struct {
	Failed map[string]string `json:"failed"`
	Synced []SyncResult      `json:"synced"`
}

// Status defines model for Status.
type Status string

// StatusUpdate defines model for StatusUpdate.
type StatusUpdate struct {
	AdminId    string  `json:"admin_id"`
	AdminNotes *string `json:"admin_notes,omitempty"`
	Status     Status  `json:"status"`
}

// SyncResult defines model for SyncResult.
type SyncResult struct {
	AgentId       string    `json:"agent_id"`
	Attempts      int       `json:"attempts"`
	Balance       string    `json:"balance"`
	LedgerVersion int64     `json:"ledger_version"`
	Superseded    bool      `json:"superseded"`
	SyncedAt      time.Time `json:"synced_at"`
}

// SyncWarning defines model for SyncWarning.
type SyncWarning struct {
	Attempts int    `json:"attempts"`
	Message  string `json:"message"`
}

// TopupRequest defines model for TopupRequest.
type TopupRequest struct {
	AgentId       string     `json:"agent_id"`
	Amount        string     `json:"amount"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Id            string     `json:"id"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy    *string    `json:"resolved_by,omitempty"`
	Status        Status     `json:"status"`
	TransactionId *string    `json:"transaction_id,omitempty"`
}

// Transaction defines model for Transaction.
type Transaction struct {
	AdminId       *string         `json:"admin_id,omitempty"`
	AdminNotes    *string         `json:"admin_notes,omitempty"`
	AgentId       string          `json:"agent_id"`
	Amount        string          `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
	Description   string          `json:"description"`
	Id            string          `json:"id"`
	Kind          TransactionKind `json:"kind"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	ReferenceCode string          `json:"reference_code"`
	SignedDelta   *string         `json:"signed_delta,omitempty"`
	Status        Status          `json:"status"`
}

// TransactionKind defines model for TransactionKind.
type TransactionKind string

// ListTransactionsByAgentParams defines parameters for ListTransactionsByAgent.
type ListTransactionsByAgentParams struct {
	Status *Status `form:"status,omitempty" json:"status,omitempty"`
}

// ReconcileBalancesParams defines parameters for ReconcileBalances.
type ReconcileBalancesParams struct {
	All *bool `form:"all,omitempty" json:"all,omitempty"`
}

// CreateAgentJSONRequestBody defines body for CreateAgent for application/json ContentType.
type CreateAgentJSONRequestBody = NewAgent

// BatchCalculateBalancesJSONRequestBody defines body for BatchCalculateBalances for application/json ContentType.
type BatchCalculateBalancesJSONRequestBody = BatchBalanceRequest

// CreateTopupRequestJSONRequestBody defines body for CreateTopupRequest for application/json ContentType.
type CreateTopupRequestJSONRequestBody = NewTopupRequest

// ApproveTopupRequestJSONRequestBody defines body for ApproveTopupRequest for application/json ContentType.
type ApproveTopupRequestJSONRequestBody = AdminAction

// RejectTopupRequestJSONRequestBody defines body for RejectTopupRequest for application/json ContentType.
type RejectTopupRequestJSONRequestBody = AdminAction

// CreateTransactionJSONRequestBody defines body for CreateTransaction for application/json ContentType.
type CreateTransactionJSONRequestBody = NewTransaction

// UpdateTransactionStatusJSONRequestBody defines body for UpdateTransactionStatus for application/json ContentType.
type UpdateTransactionStatusJSONRequestBody = StatusUpdate

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// List agents
	// (GET /agents)
	ListAgents(w http.ResponseWriter, r *http.Request)
	// Register an agent
	// (POST /agents)
	CreateAgent(w http.ResponseWriter, r *http.Request)
	// Get an agent with cached and derived balances
	// (GET /agents/{agentId})
	GetAgentById(w http.ResponseWriter, r *http.Request, agentId string)
	// Get the ledger-derived balance of an agent
	// (GET /agents/{agentId}/balance)
	GetAgentBalance(w http.ResponseWriter, r *http.Request, agentId string)
	// Recompute and store the cached balance of an agent
	// (POST /agents/{agentId}/sync)
	SyncAgentBalance(w http.ResponseWriter, r *http.Request, agentId string)
	// List top-up requests of an agent
	// (GET /agents/{agentId}/topups)
	ListTopupRequestsByAgent(w http.ResponseWriter, r *http.Request, agentId string)
	// List ledger entries of an agent
	// (GET /agents/{agentId}/transactions)
	ListTransactionsByAgent(w http.ResponseWriter, r *http.Request, agentId string, params ListTransactionsByAgentParams)
	// Calculate the balances of many agents
	// (POST /balances/batch)
	BatchCalculateBalances(w http.ResponseWriter, r *http.Request)
	// Synchronize stale cached balances
	// (POST /reconcile)
	ReconcileBalances(w http.ResponseWriter, r *http.Request, params ReconcileBalancesParams)
	// Create a top-up request
	// (POST /topups)
	CreateTopupRequest(w http.ResponseWriter, r *http.Request)
	// Delete a resolved top-up request
	// (DELETE /topups/{topupId})
	DeleteTopupRequest(w http.ResponseWriter, r *http.Request, topupId string)
	// Get a top-up request
	// (GET /topups/{topupId})
	GetTopupRequestById(w http.ResponseWriter, r *http.Request, topupId string)
	// Approve a pending top-up request
	// (POST /topups/{topupId}/approve)
	ApproveTopupRequest(w http.ResponseWriter, r *http.Request, topupId string)
	// Reject a pending top-up request
	// (POST /topups/{topupId}/reject)
	RejectTopupRequest(w http.ResponseWriter, r *http.Request, topupId string)
	// Record a pending ledger entry
	// (POST /transactions)
	CreateTransaction(w http.ResponseWriter, r *http.Request)
	// Get a ledger entry
	// (GET /transactions/{transactionId})
	GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string)
	// Approve or reject a pending ledger entry
	// (POST /transactions/{transactionId}/status)
	UpdateTransactionStatus(w http.ResponseWriter, r *http.Request, transactionId string)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// ListAgents operation middleware
func (siw *ServerInterfaceWrapper) ListAgents(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListAgents(w, r)
	})
}

// CreateAgent operation middleware
func (siw *ServerInterfaceWrapper) CreateAgent(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateAgent(w, r)
	})
}

// GetAgentById operation middleware
func (siw *ServerInterfaceWrapper) GetAgentById(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "agentId" -------------
	var agentId string
	if !siw.pathParam(w, r, "agentId", &agentId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAgentById(w, r, agentId)
	})
}

// GetAgentBalance operation middleware
func (siw *ServerInterfaceWrapper) GetAgentBalance(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "agentId" -------------
	var agentId string
	if !siw.pathParam(w, r, "agentId", &agentId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAgentBalance(w, r, agentId)
	})
}

// SyncAgentBalance operation middleware
func (siw *ServerInterfaceWrapper) SyncAgentBalance(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "agentId" -------------
	var agentId string
	if !siw.pathParam(w, r, "agentId", &agentId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SyncAgentBalance(w, r, agentId)
	})
}

// ListTopupRequestsByAgent operation middleware
func (siw *ServerInterfaceWrapper) ListTopupRequestsByAgent(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "agentId" -------------
	var agentId string
	if !siw.pathParam(w, r, "agentId", &agentId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTopupRequestsByAgent(w, r, agentId)
	})
}

// ListTransactionsByAgent operation middleware
func (siw *ServerInterfaceWrapper) ListTransactionsByAgent(w http.ResponseWriter, r *http.Request) {
	var err error

	// ------------- Path parameter "agentId" -------------
	var agentId string
	if !siw.pathParam(w, r, "agentId", &agentId) {
		return
	}

	// Parameter object where we will unmarshal all parameters from the context
	var params ListTransactionsByAgentParams

	// ------------- Optional query parameter "status" -------------

	err = runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &params.Status)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "status", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTransactionsByAgent(w, r, agentId, params)
	})
}

// BatchCalculateBalances operation middleware
func (siw *ServerInterfaceWrapper) BatchCalculateBalances(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.BatchCalculateBalances(w, r)
	})
}

// ReconcileBalances operation middleware
func (siw *ServerInterfaceWrapper) ReconcileBalances(w http.ResponseWriter, r *http.Request) {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params ReconcileBalancesParams

	// ------------- Optional query parameter "all" -------------

	err = runtime.BindQueryParameter("form", true, false, "all", r.URL.Query(), &params.All)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "all", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ReconcileBalances(w, r, params)
	})
}

// CreateTopupRequest operation middleware
func (siw *ServerInterfaceWrapper) CreateTopupRequest(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateTopupRequest(w, r)
	})
}

// DeleteTopupRequest operation middleware
func (siw *ServerInterfaceWrapper) DeleteTopupRequest(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "topupId" -------------
	var topupId string
	if !siw.pathParam(w, r, "topupId", &topupId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteTopupRequest(w, r, topupId)
	})
}

// GetTopupRequestById operation middleware
func (siw *ServerInterfaceWrapper) GetTopupRequestById(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "topupId" -------------
	var topupId string
	if !siw.pathParam(w, r, "topupId", &topupId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTopupRequestById(w, r, topupId)
	})
}

// ApproveTopupRequest operation middleware
func (siw *ServerInterfaceWrapper) ApproveTopupRequest(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "topupId" -------------
	var topupId string
	if !siw.pathParam(w, r, "topupId", &topupId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ApproveTopupRequest(w, r, topupId)
	})
}

// RejectTopupRequest operation middleware
func (siw *ServerInterfaceWrapper) RejectTopupRequest(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "topupId" -------------
	var topupId string
	if !siw.pathParam(w, r, "topupId", &topupId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RejectTopupRequest(w, r, topupId)
	})
}

// CreateTransaction operation middleware
func (siw *ServerInterfaceWrapper) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateTransaction(w, r)
	})
}

// GetTransactionById operation middleware
func (siw *ServerInterfaceWrapper) GetTransactionById(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "transactionId" -------------
	var transactionId string
	if !siw.pathParam(w, r, "transactionId", &transactionId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTransactionById(w, r, transactionId)
	})
}

// UpdateTransactionStatus operation middleware
func (siw *ServerInterfaceWrapper) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	// ------------- Path parameter "transactionId" -------------
	var transactionId string
	if !siw.pathParam(w, r, "transactionId", &transactionId) {
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateTransactionStatus(w, r, transactionId)
	})
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// Handler creates http.Handler with routing matching OpenAPI spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux creates http.Handler with routing matching OpenAPI spec based on the provided mux.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

func HandlerFromMuxWithBaseURL(si ServerInterface, r chi.Router, baseURL string) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseURL:    baseURL,
		BaseRouter: r,
	})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/agents", wrapper.ListAgents)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/agents", wrapper.CreateAgent)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/agents/{agentId}", wrapper.GetAgentById)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/agents/{agentId}/balance", wrapper.GetAgentBalance)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/agents/{agentId}/sync", wrapper.SyncAgentBalance)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/agents/{agentId}/topups", wrapper.ListTopupRequestsByAgent)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/agents/{agentId}/transactions", wrapper.ListTransactionsByAgent)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/balances/batch", wrapper.BatchCalculateBalances)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/reconcile", wrapper.ReconcileBalances)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/topups", wrapper.CreateTopupRequest)
	})
	r.Group(func(r chi.Router) {
		r.Delete(options.BaseURL+"/topups/{topupId}", wrapper.DeleteTopupRequest)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/topups/{topupId}", wrapper.GetTopupRequestById)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/topups/{topupId}/approve", wrapper.ApproveTopupRequest)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/topups/{topupId}/reject", wrapper.RejectTopupRequest)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/transactions", wrapper.CreateTransaction)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/transactions/{transactionId}", wrapper.GetTransactionById)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/transactions/{transactionId}/status", wrapper.UpdateTransactionStatus)
	})

	return r
}
