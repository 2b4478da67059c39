package dynamodb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
)

// partiQLInLimit bounds the number of partition keys in one IN clause.
const partiQLInLimit = 50

// ledgerInsertItems builds the write set shared by InsertTransaction and ApproveTopup:
// bump the agent's ledger version, put the entry, reserve its reference code and
// record which agent owns the transaction id.
func (s *Store) ledgerInsertItems(tx *models.WalletTransaction) ([]types.TransactWriteItem, error) {
	txAV, err := attributevalue.MarshalMap(toTransactionItem(tx))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	guard := markerKey(referenceGuardID(tx.ReferenceCode))
	guard["transaction_id"] = &types.AttributeValueMemberS{Value: tx.ID}

	locator := markerKey(locatorID(tx.ID))
	locator["ledger_agent_id"] = &types.AttributeValueMemberS{Value: tx.AgentID}

	return []types.TransactWriteItem{
		{
			Update: s.bumpLedgerVersion(tx.AgentID),
		},
		{
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                txAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
		{
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
		{
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                locator,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
	}, nil
}

func (s *Store) bumpLedgerVersion(agentID string) *types.Update {
	return &types.Update{
		TableName: aws.String(s.AgentsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: agentID},
		},
		UpdateExpression:    aws.String("SET ledger_version = if_not_exists(ledger_version, :zero) + :inc"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
		},
	}
}

// InsertTransaction appends a ledger entry and bumps the agent's ledger version atomically.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	items, err := s.ledgerInsertItems(tx)
	if err != nil {
		return err
	}

	slog.Log(ctx, slog.LevelDebug, "inserting ledger entry", "transaction_id", tx.ID, "agent_id", tx.AgentID, "kind", tx.Kind)

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if reasons, ok := cancellationReasons(err); ok {
			return mapLedgerInsertError(err, reasons, 0, tx.AgentID, tx.ID, tx.ReferenceCode)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// transactionOwner resolves the agent whose ledger partition holds txID.
func (s *Store) transactionOwner(ctx context.Context, txID string) (string, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            markerKey(locatorID(txID)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	var locator struct {
		AgentID string `dynamodbav:"ledger_agent_id"`
	}
	if result.Item != nil {
		if err := attributevalue.UnmarshalMap(result.Item, &locator); err != nil {
			return "", fmt.Errorf("failed to unmarshal transaction locator: %w", err)
		}
	}
	if locator.AgentID == "" {
		return "", fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	return locator.AgentID, nil
}

// GetTransaction retrieves a ledger entry from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.WalletTransaction, error) {
	agentID, err := s.transactionOwner(ctx, txID)
	if err != nil {
		return nil, err
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            transactionKey(agentID, txID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}

	var item transactionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	tx := item.toModel()
	return &tx, nil
}

// UpdateTransactionStatus processes a pending entry. The status condition guards
// against two admins processing the same entry concurrently.
func (s *Store) UpdateTransactionStatus(ctx context.Context, txID string, update models.StatusUpdate) (*models.WalletTransaction, error) {
	current, err := s.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.PENDING {
		return nil, fmt.Errorf("transaction %s is %s: %w", txID, current.Status, storage.ErrInvalidState)
	}

	processedAtAV, err := attributevalue.Marshal(update.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal processed_at: %w", err)
	}

	expr := "SET #status = :new_status, processed_at = :processed_at, admin_id = :admin_id"
	values := map[string]types.AttributeValue{
		":new_status":     &types.AttributeValueMemberS{Value: string(update.Status)},
		":pending_status": &types.AttributeValueMemberS{Value: string(models.PENDING)},
		":processed_at":   processedAtAV,
		":admin_id":       &types.AttributeValueMemberS{Value: update.AdminID},
	}
	if update.AdminNotes != nil {
		expr += ", admin_notes = :admin_notes"
		values[":admin_notes"] = &types.AttributeValueMemberS{Value: *update.AdminNotes}
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 aws.String(s.TransactionsTableName),
					Key:                       transactionKey(current.AgentID, txID),
					UpdateExpression:          aws.String(expr),
					ConditionExpression:       aws.String("#status = :pending_status"),
					ExpressionAttributeNames:  map[string]string{"#status": "status"},
					ExpressionAttributeValues: values,
				},
			},
			{
				Update: s.bumpLedgerVersion(current.AgentID),
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if reasons, ok := cancellationReasons(err); ok {
			if conditionFailedAt(reasons, 0) {
				return nil, fmt.Errorf("transaction %s was processed concurrently: %w", txID, storage.ErrInvalidState)
			}
			if conditionFailedAt(reasons, 1) {
				return nil, &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Constraint: "agents.id", Err: fmt.Errorf("agent %s does not exist", current.AgentID)}
			}
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	updated := *current
	updated.Status = update.Status
	processedAt := update.ProcessedAt
	updated.ProcessedAt = &processedAt
	updated.AdminID = update.AdminID
	if update.AdminNotes != nil {
		updated.AdminNotes = *update.AdminNotes
	}
	return &updated, nil
}

// QueryTransactionsByAgent retrieves all ledger entries of an agent from its
// partition with a strongly consistent read, oldest first.
func (s *Store) QueryTransactionsByAgent(ctx context.Context, agentID string, status *models.Status) ([]models.WalletTransaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		KeyConditionExpression: aws.String("agent_id = :agent_id"),
		ConsistentRead:         aws.Bool(true),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":agent_id": &types.AttributeValueMemberS{Value: agentID},
		},
	}
	if status != nil {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: string(*status)}
	}

	var items []transactionItem
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions by agent ID: %w", err)
		}

		var page []transactionItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}
		items = append(items, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return toTransactions(items), nil
}

// QueryTransactionsByAgents retrieves the ledger entries of many agents with one
// consistent PartiQL statement per chunk of partition keys instead of one query per agent.
func (s *Store) QueryTransactionsByAgents(ctx context.Context, agentIDs []string) ([]models.WalletTransaction, error) {
	var items []transactionItem
	for start := 0; start < len(agentIDs); start += partiQLInLimit {
		end := min(start+partiQLInLimit, len(agentIDs))
		chunk := agentIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		params := make([]types.AttributeValue, len(chunk))
		for i, id := range chunk {
			params[i] = &types.AttributeValueMemberS{Value: id}
		}
		input := &dynamodb.ExecuteStatementInput{
			Statement:      aws.String(fmt.Sprintf(`SELECT * FROM "%s" WHERE agent_id IN [%s]`, s.TransactionsTableName, placeholders)),
			Parameters:     params,
			ConsistentRead: aws.Bool(true),
		}

		for {
			result, err := s.Client.ExecuteStatement(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("failed to bulk query transactions: %w", err)
			}

			var page []transactionItem
			if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
			}
			items = append(items, page...)

			if result.NextToken == nil {
				break
			}
			input.NextToken = result.NextToken
		}
	}

	return toTransactions(items), nil
}

func toTransactions(items []transactionItem) []models.WalletTransaction {
	txs := make([]models.WalletTransaction, len(items))
	for i, item := range items {
		txs[i] = item.toModel()
	}
	// The sort key is the transaction id, so creation order is restored here.
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs
}
