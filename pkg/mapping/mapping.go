package mapping

import (
	"fmt"
	"sort"

	"github.com/chris/agent-wallet-ledger/pkg/api"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/shopspring/decimal"
)

// displayPlaces is the number of decimal places amounts are rounded to for display.
// Stored and computed values are never rounded.
const displayPlaces = 2

// FormatAmount renders an amount for API responses.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}

// ParseAmount parses a decimal string from a request body.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &wallet.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a decimal number", s)}
	}
	return d, nil
}

// ToApiAgent converts a domain Agent model to an API Agent model.
func ToApiAgent(agent *models.Agent) *api.Agent {
	return &api.Agent{
		Id:            agent.ID,
		Name:          agent.Name,
		WalletBalance: FormatAmount(agent.WalletBalance),
		LedgerVersion: agent.LedgerVersion,
		SyncedVersion: agent.SyncedVersion,
		LastSyncedAt:  agent.LastSyncedAt,
		CreatedAt:     agent.CreatedAt,
	}
}

// ToApiAgentView adds the derived balance and drift flag to the API Agent model.
func ToApiAgentView(view *wallet.AgentView) *api.Agent {
	a := ToApiAgent(&view.Agent)
	derived := FormatAmount(view.DerivedBalance)
	drift := view.Drift
	a.DerivedBalance = &derived
	a.Drift = &drift
	return a
}

// ToApiTransaction converts a domain WalletTransaction model to an API Transaction model.
func ToApiTransaction(tx *models.WalletTransaction) *api.Transaction {
	out := &api.Transaction{
		Id:            tx.ID,
		AgentId:       tx.AgentID,
		Amount:        FormatAmount(tx.Amount),
		Kind:          api.TransactionKind(tx.Kind),
		Status:        api.Status(tx.Status),
		Description:   tx.Description,
		ReferenceCode: tx.ReferenceCode,
		CreatedAt:     tx.CreatedAt,
		ProcessedAt:   tx.ProcessedAt,
		AdminId:       optional(tx.AdminID),
		AdminNotes:    optional(tx.AdminNotes),
	}
	if tx.SignedDelta != nil {
		delta := FormatAmount(*tx.SignedDelta)
		out.SignedDelta = &delta
	}
	return out
}

// ToApiTopupRequest converts a domain TopupRequest model to an API TopupRequest model.
func ToApiTopupRequest(req *models.TopupRequest) *api.TopupRequest {
	return &api.TopupRequest{
		Id:            req.ID,
		AgentId:       req.AgentID,
		Amount:        FormatAmount(req.Amount),
		Status:        api.Status(req.Status),
		CreatedAt:     req.CreatedAt,
		ApprovedAt:    req.ApprovedAt,
		ApprovedBy:    optional(req.ApprovedBy),
		ResolvedAt:    req.ResolvedAt,
		ResolvedBy:    optional(req.ResolvedBy),
		TransactionId: optional(req.TransactionID),
	}
}

// ToApiSyncResult converts a SyncResult to its API model.
func ToApiSyncResult(res *wallet.SyncResult) *api.SyncResult {
	return &api.SyncResult{
		AgentId:       res.AgentID,
		Balance:       FormatAmount(res.Balance),
		LedgerVersion: res.LedgerVersion,
		Attempts:      res.Attempts,
		Superseded:    res.Superseded,
		SyncedAt:      res.SyncedAt,
	}
}

// ToApiActionResult converts the outcome of an administrative action.
func ToApiActionResult(out *wallet.Outcome) *api.ActionResult {
	res := &api.ActionResult{
		Status: api.Status(out.Status),
		Synced: out.Synced,
	}
	if out.Request != nil {
		res.TopupRequest = ToApiTopupRequest(out.Request)
	}
	if out.Transaction != nil {
		res.Transaction = ToApiTransaction(out.Transaction)
	}
	if out.Sync != nil {
		res.Sync = ToApiSyncResult(out.Sync)
	}
	if out.SyncWarning != nil {
		res.SyncWarning = &api.SyncWarning{
			Attempts: out.SyncWarning.Attempts,
			Message:  "balance update delayed, it will be retried",
		}
	}
	return res
}

// ToApiBatchBalances converts a batch calculation result.
func ToApiBatchBalances(res wallet.BatchResult) *api.BatchBalanceResponse {
	out := &api.BatchBalanceResponse{
		Balances: make(map[string]string, len(res.Balances)),
		Fallback: res.Fallback,
	}
	for id, b := range res.Balances {
		out.Balances[id] = FormatAmount(b)
	}
	if len(res.Failed) > 0 {
		failed := make(map[string]string, len(res.Failed))
		for id, err := range res.Failed {
			failed[id] = wallet.Classify(err)
		}
		out.Failed = &failed
	}
	return out
}

// ToApiReconcileReport converts a reconciliation report, ordering results by agent.
func ToApiReconcileReport(report wallet.SyncReport) *api.ReconcileReport {
	out := &api.ReconcileReport{
		Synced: make([]api.SyncResult, 0, len(report.Synced)),
		Failed: make(map[string]string, len(report.Failed)),
	}
	for i := range report.Synced {
		out.Synced = append(out.Synced, *ToApiSyncResult(&report.Synced[i]))
	}
	sort.Slice(out.Synced, func(i, j int) bool { return out.Synced[i].AgentId < out.Synced[j].AgentId })
	for id, err := range report.Failed {
		out.Failed[id] = wallet.Classify(err)
	}
	return out
}

// ToDomainNewTransaction converts an API NewTransaction model to the engine's input.
func ToDomainNewTransaction(newTx *api.NewTransaction) (wallet.NewTransaction, error) {
	amount, err := ParseAmount("amount", newTx.Amount)
	if err != nil {
		return wallet.NewTransaction{}, err
	}

	in := wallet.NewTransaction{
		AgentID: newTx.AgentId,
		Amount:  amount,
		Kind:    models.TransactionKind(newTx.Kind),
	}
	if newTx.Description != nil {
		in.Description = *newTx.Description
	}
	if newTx.SignedDelta != nil {
		delta, err := ParseAmount("signed_delta", *newTx.SignedDelta)
		if err != nil {
			return wallet.NewTransaction{}, err
		}
		in.SignedDelta = &delta
	}
	return in, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
