package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

// cancellationReasons extracts the per-item reasons of a cancelled TransactWriteItems call.
func cancellationReasons(err error) ([]types.CancellationReason, bool) {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil, false
	}
	return tce.CancellationReasons, true
}

// conditionFailedAt reports whether the item at index i failed its condition expression.
func conditionFailedAt(reasons []types.CancellationReason, i int) bool {
	return i < len(reasons) && reasons[i].Code != nil && *reasons[i].Code == conditionalCheckFailed
}

// mapLedgerInsertError translates a cancelled ledger insert whose four items
// (agent version bump, entry put, reference guard put, locator put) start at offset.
func mapLedgerInsertError(err error, reasons []types.CancellationReason, offset int, agentID, txID, reference string) error {
	switch {
	case conditionFailedAt(reasons, offset):
		return &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Constraint: "agents.id", Err: fmt.Errorf("agent %s does not exist", agentID)}
	case conditionFailedAt(reasons, offset+1), conditionFailedAt(reasons, offset+3):
		return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "transactions.id", Err: fmt.Errorf("transaction %s already exists", txID)}
	case conditionFailedAt(reasons, offset+2):
		return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "transactions.reference_code", Err: fmt.Errorf("reference code %s already used", reference)}
	}
	return fmt.Errorf("failed to execute ledger insert: %w", err)
}

// conditionFailure distinguishes a missing record from one in the wrong state using
// the item DynamoDB returns when ReturnValuesOnConditionCheckFailure is ALL_OLD.
func conditionFailure(item map[string]types.AttributeValue, what, id string, stateErr error) error {
	if len(item) == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, id, stateErr)
}
