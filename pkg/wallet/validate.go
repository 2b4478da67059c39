package wallet

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/google/uuid"
)

var kindPrefixes = map[models.TransactionKind]string{
	models.KindTopup:               "TOP",
	models.KindDeduction:           "DED",
	models.KindRefund:              "REF",
	models.KindCommission:          "COM",
	models.KindCommissionDeposit:   "COM",
	models.KindWithdrawalDeduction: "WDR",
	models.KindAdminAdjustment:     "ADJ",
}

var referencePattern = regexp.MustCompile(`^[A-Z]{3}-[0-9]{8}-[0-9A-F]{12}$`)

// NewReferenceCode generates a reference such as TOP-20260101-1A2B3C4D5E6F.
// The suffix is 48 random bits taken from a v4 UUID.
func NewReferenceCode(kind models.TransactionKind, at time.Time) string {
	prefix, ok := kindPrefixes[kind]
	if !ok {
		prefix = "TXN"
	}
	id := uuid.New()
	return fmt.Sprintf("%s-%s-%X", prefix, at.UTC().Format("20060102"), id[:6])
}

// ValidateTransaction checks a ledger entry against the ledger invariants before insertion.
func ValidateTransaction(tx *models.WalletTransaction) error {
	switch {
	case strings.TrimSpace(tx.AgentID) == "":
		return &ValidationError{Field: "agent_id", Reason: "must not be empty"}
	case tx.Kind == "":
		return &ValidationError{Field: "kind", Reason: "must not be empty"}
	case !tx.Kind.Valid():
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", tx.Kind)}
	case !tx.Amount.IsPositive():
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	case !tx.Status.Valid():
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", tx.Status)}
	case !referencePattern.MatchString(tx.ReferenceCode):
		return &ValidationError{Field: "reference_code", Reason: fmt.Sprintf("%q is not well-formed", tx.ReferenceCode)}
	}

	if tx.Kind == models.KindAdminAdjustment {
		if tx.SignedDelta == nil {
			return &ValidationError{Field: "signed_delta", Reason: "required for admin_adjustment"}
		}
		if !tx.SignedDelta.Abs().Equal(tx.Amount) {
			return &ValidationError{Field: "signed_delta", Reason: "magnitude must equal amount"}
		}
	} else if tx.SignedDelta != nil {
		return &ValidationError{Field: "signed_delta", Reason: "only allowed for admin_adjustment"}
	}
	return nil
}
