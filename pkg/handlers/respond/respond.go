// Package respond writes JSON responses and maps engine errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// Decode reads a JSON request body into dst. It writes a 400 response and
// returns false when the body is malformed.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		JSON(w, r, http.StatusBadRequest, api.Error{Code: wallet.ClassValidation, Message: fmt.Sprintf("Invalid request body: %v", err)})
		return false
	}
	return true
}

// StatusFor returns the HTTP status for an engine error.
func StatusFor(err error) int {
	switch wallet.Classify(err) {
	case wallet.ClassNotFound:
		return http.StatusNotFound
	case wallet.ClassInvalidState:
		return http.StatusConflict
	case wallet.ClassValidation:
		return http.StatusBadRequest
	case wallet.ClassConstraint:
		var cv *wallet.ConstraintViolationError
		if errors.As(err, &cv) && cv.Category == wallet.CategoryDuplicate {
			return http.StatusConflict
		}
		return http.StatusUnprocessableEntity
	case wallet.ClassSyncDelayed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err as an api.Error. Internal errors are logged and their
// details are not exposed.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := api.Error{Code: wallet.Classify(err), Message: err.Error()}

	var cv *wallet.ConstraintViolationError
	if errors.As(err, &cv) {
		body.Message = cv.Category.Message()
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	JSON(w, r, status, body)
}

// Outcome writes the result of an administrative action. An action whose
// balance sync was deferred is reported as 202 Accepted.
func Outcome(w http.ResponseWriter, r *http.Request, out *api.ActionResult) {
	status := http.StatusOK
	if out.SyncWarning != nil {
		status = http.StatusAccepted
	}
	JSON(w, r, status, out)
}
