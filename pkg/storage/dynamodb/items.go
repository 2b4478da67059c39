package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// decimalAV stores a decimal as a DynamoDB number without going through float64.
type decimalAV struct {
	decimal.Decimal
}

func (d decimalAV) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: d.Decimal.String()}, nil
}

func (d *decimalAV) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		d.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("unsupported attribute value %T for decimal", av)
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("failed to parse decimal %q: %w", raw, err)
	}
	d.Decimal = parsed
	return nil
}

type transactionItem struct {
	ID            string     `dynamodbav:"id"`
	AgentID       string     `dynamodbav:"agent_id"`
	Amount        decimalAV  `dynamodbav:"amount"`
	Kind          string     `dynamodbav:"kind"`
	Status        string     `dynamodbav:"status"`
	Description   string     `dynamodbav:"description"`
	ReferenceCode string     `dynamodbav:"reference_code"`
	AdminNotes    string     `dynamodbav:"admin_notes,omitempty"`
	SignedDelta   *decimalAV `dynamodbav:"signed_delta,omitempty"`
	CreatedAt     time.Time  `dynamodbav:"created_at"`
	ProcessedAt   *time.Time `dynamodbav:"processed_at,omitempty"`
	AdminID       string     `dynamodbav:"admin_id,omitempty"`
}

func toTransactionItem(tx *models.WalletTransaction) transactionItem {
	item := transactionItem{
		ID:            tx.ID,
		AgentID:       tx.AgentID,
		Amount:        decimalAV{tx.Amount},
		Kind:          string(tx.Kind),
		Status:        string(tx.Status),
		Description:   tx.Description,
		ReferenceCode: tx.ReferenceCode,
		AdminNotes:    tx.AdminNotes,
		CreatedAt:     tx.CreatedAt,
		ProcessedAt:   tx.ProcessedAt,
		AdminID:       tx.AdminID,
	}
	if tx.SignedDelta != nil {
		item.SignedDelta = &decimalAV{*tx.SignedDelta}
	}
	return item
}

func (i transactionItem) toModel() models.WalletTransaction {
	tx := models.WalletTransaction{
		ID:            i.ID,
		AgentID:       i.AgentID,
		Amount:        i.Amount.Decimal,
		Kind:          models.TransactionKind(i.Kind),
		Status:        models.Status(i.Status),
		Description:   i.Description,
		ReferenceCode: i.ReferenceCode,
		AdminNotes:    i.AdminNotes,
		CreatedAt:     i.CreatedAt,
		ProcessedAt:   i.ProcessedAt,
		AdminID:       i.AdminID,
	}
	if i.SignedDelta != nil {
		d := i.SignedDelta.Decimal
		tx.SignedDelta = &d
	}
	return tx
}

type topupItem struct {
	ID            string     `dynamodbav:"id"`
	AgentID       string     `dynamodbav:"agent_id"`
	Amount        decimalAV  `dynamodbav:"amount"`
	Status        string     `dynamodbav:"status"`
	CreatedAt     time.Time  `dynamodbav:"created_at"`
	ApprovedAt    *time.Time `dynamodbav:"approved_at,omitempty"`
	ApprovedBy    string     `dynamodbav:"approved_by,omitempty"`
	ResolvedBy    string     `dynamodbav:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `dynamodbav:"resolved_at,omitempty"`
	TransactionID string     `dynamodbav:"transaction_id,omitempty"`
}

func toTopupItem(req *models.TopupRequest) topupItem {
	return topupItem{
		ID:            req.ID,
		AgentID:       req.AgentID,
		Amount:        decimalAV{req.Amount},
		Status:        string(req.Status),
		CreatedAt:     req.CreatedAt,
		ApprovedAt:    req.ApprovedAt,
		ApprovedBy:    req.ApprovedBy,
		ResolvedBy:    req.ResolvedBy,
		ResolvedAt:    req.ResolvedAt,
		TransactionID: req.TransactionID,
	}
}

func (i topupItem) toModel() models.TopupRequest {
	return models.TopupRequest{
		ID:            i.ID,
		AgentID:       i.AgentID,
		Amount:        i.Amount.Decimal,
		Status:        models.Status(i.Status),
		CreatedAt:     i.CreatedAt,
		ApprovedAt:    i.ApprovedAt,
		ApprovedBy:    i.ApprovedBy,
		ResolvedBy:    i.ResolvedBy,
		ResolvedAt:    i.ResolvedAt,
		TransactionID: i.TransactionID,
	}
}

type agentItem struct {
	ID            string     `dynamodbav:"id"`
	Name          string     `dynamodbav:"name"`
	WalletBalance decimalAV  `dynamodbav:"wallet_balance"`
	LedgerVersion int64      `dynamodbav:"ledger_version"`
	SyncedVersion int64      `dynamodbav:"synced_version"`
	LastSyncedAt  *time.Time `dynamodbav:"last_synced_at,omitempty"`
	CreatedAt     time.Time  `dynamodbav:"created_at"`
}

func toAgentItem(a *models.Agent) agentItem {
	return agentItem{
		ID:            a.ID,
		Name:          a.Name,
		WalletBalance: decimalAV{a.WalletBalance},
		LedgerVersion: a.LedgerVersion,
		SyncedVersion: a.SyncedVersion,
		LastSyncedAt:  a.LastSyncedAt,
		CreatedAt:     a.CreatedAt,
	}
}

func (i agentItem) toModel() models.Agent {
	return models.Agent{
		ID:            i.ID,
		Name:          i.Name,
		WalletBalance: i.WalletBalance.Decimal,
		LedgerVersion: i.LedgerVersion,
		SyncedVersion: i.SyncedVersion,
		LastSyncedAt:  i.LastSyncedAt,
		CreatedAt:     i.CreatedAt,
	}
}
