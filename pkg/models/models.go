package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status defines the possible states of a ledger entry or a top-up request.
type Status string

const (
	PENDING  Status = "pending"
	APPROVED Status = "approved"
	REJECTED Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case PENDING, APPROVED, REJECTED:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is defined out of s.
func (s Status) IsTerminal() bool {
	return s == APPROVED || s == REJECTED
}

// TransactionKind determines the sign a ledger entry contributes to a balance.
type TransactionKind string

const (
	KindTopup               TransactionKind = "topup"
	KindDeduction           TransactionKind = "deduction"
	KindRefund              TransactionKind = "refund"
	KindCommission          TransactionKind = "commission"
	KindCommissionDeposit   TransactionKind = "commission_deposit" // legacy alias of commission
	KindWithdrawalDeduction TransactionKind = "withdrawal_deduction"
	KindAdminAdjustment     TransactionKind = "admin_adjustment"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindTopup, KindDeduction, KindRefund, KindCommission, KindCommissionDeposit,
		KindWithdrawalDeduction, KindAdminAdjustment:
		return true
	}
	return false
}

// WalletTransaction is a single ledger entry. Once created only the processing
// fields (status, processed at, admin id, admin notes) may change.
type WalletTransaction struct {
	ID            string           `json:"id"`
	AgentID       string           `json:"agent_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Kind          TransactionKind  `json:"kind"`
	Status        Status           `json:"status"`
	Description   string           `json:"description"`
	ReferenceCode string           `json:"reference_code"`
	AdminNotes    string           `json:"admin_notes,omitempty"`
	SignedDelta   *decimal.Decimal `json:"signed_delta,omitempty"` // admin_adjustment only
	CreatedAt     time.Time        `json:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	AdminID       string           `json:"admin_id,omitempty"`
}

// StatusUpdate carries the fields written when a pending ledger entry is processed.
// A nil AdminNotes keeps the notes already stored on the entry.
type StatusUpdate struct {
	Status      Status
	AdminID     string
	AdminNotes  *string
	ProcessedAt time.Time
}

// TopupRequest is an agent's or admin's intent to add funds. It never carries
// balance weight itself; approval produces a topup WalletTransaction.
type TopupRequest struct {
	ID            string          `json:"id"`
	AgentID       string          `json:"agent_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy    string          `json:"approved_by,omitempty"` // also set on rejection, kept for audit compatibility
	ResolvedBy    string          `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// TopupApproval is everything the store needs to approve a request and record
// its ledger entry in one atomic write.
type TopupApproval struct {
	AdminID     string
	ApprovedAt  time.Time
	Transaction *WalletTransaction
}

// Agent is the subset of the platform's agent record this service maintains.
// WalletBalance is a cache of the ledger-derived balance; the ledger wins on disagreement.
type Agent struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	LedgerVersion int64           `json:"ledger_version"`
	SyncedVersion int64           `json:"synced_version"`
	LastSyncedAt  *time.Time      `json:"last_synced_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsStale reports whether the ledger has changed since the cached balance was written.
func (a *Agent) IsStale() bool {
	return a.SyncedVersion < a.LedgerVersion
}

// ResyncRequest asks for an agent's cached balance to be recomputed later.
type ResyncRequest struct {
	AgentID     string    `json:"agent_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
