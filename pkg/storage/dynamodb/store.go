package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the Store.
//
//go:generate mockery --name DynamoDBAPI --output ./mocks --outpkg mocks
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	ExecuteStatement(ctx context.Context, params *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
//
// Tables:
//   - transactions: pk "agent_id", sk "id". An agent's ledger is one partition, read
//     with ConsistentRead so a sync always sees every committed entry. Locator items
//     (agent_id = id = "TXID#<id>") map a transaction id to its agent, and guard items
//     (agent_id = id = "REF#<code>") reserve reference codes.
//   - topups: pk "id", GSI agent_id-index (agent_id, created_at).
//   - agents: pk "id".
type Store struct {
	Client                DynamoDBAPI
	TransactionsTableName string
	TopupsTableName       string
	AgentsTableName       string

	// Now stamps resolution and creation times. Defaults to time.Now in UTC.
	Now func() time.Time
}

// New creates a new Store.
func New(client DynamoDBAPI, transactionsTable, topupsTable, agentsTable string) *Store {
	return &Store{
		Client:                client,
		TransactionsTableName: transactionsTable,
		TopupsTableName:       topupsTable,
		AgentsTableName:       agentsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// agentIDIndex is the top-ups GSI. Listing requests tolerates index lag.
const agentIDIndex = "agent_id-index"

// transactionKey addresses a ledger entry.
func transactionKey(agentID, txID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"agent_id": &types.AttributeValueMemberS{Value: agentID},
		"id":       &types.AttributeValueMemberS{Value: txID},
	}
}

// markerKey addresses a locator or guard item, which lives in its own partition.
func markerKey(id string) map[string]types.AttributeValue {
	return transactionKey(id, id)
}

func locatorID(txID string) string {
	return "TXID#" + txID
}

// referenceGuardID is the key of the item reserving a reference code.
func referenceGuardID(code string) string {
	return "REF#" + code
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
