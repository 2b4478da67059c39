package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/agents"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/ledger"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/respond"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/topups"
	"github.com/chris/agent-wallet-ledger/pkg/handlers/transactions"
	wshandler "github.com/chris/agent-wallet-ledger/pkg/handlers/websockets"
	appmiddleware "github.com/chris/agent-wallet-ledger/pkg/middleware"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/chris/agent-wallet-ledger/pkg/websockets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ApiHandler implements the generated server interface by composing the
// per-resource handlers.
type ApiHandler struct {
	*agents.AgentsHandler
	*ledger.LedgerHandler
	*topups.TopupsHandler
	*transactions.TransactionsHandler
}

// NewApiHandler creates a new ApiHandler backed by the engine.
func NewApiHandler(engine *wallet.Engine) *ApiHandler {
	return &ApiHandler{
		AgentsHandler:       agents.NewAgentsHandler(engine),
		LedgerHandler:       ledger.NewLedgerHandler(engine),
		TopupsHandler:       topups.NewTopupsHandler(engine),
		TransactionsHandler: transactions.NewTransactionsHandler(engine),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// NewRouter mounts the API and, when a connection manager is given, the
// WebSocket endpoint on a chi router.
func NewRouter(engine *wallet.Engine, connManager websockets.ConnectionManager, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(appmiddleware.NewStructuredLogger(logger))

	if connManager != nil {
		router.Handle("/ws", wshandler.NewHandler(connManager))
	}

	api.HandlerWithOptions(NewApiHandler(engine), api.ChiServerOptions{
		BaseRouter: router,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			respond.Error(w, r, &wallet.ValidationError{Field: "parameter", Reason: err.Error()})
		},
	})
	return router
}
