package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

func agentKey(agentID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: agentID}}
}

// CreateAgent creates a new agent record in DynamoDB.
func (s *Store) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = s.now()
	}
	agentAV, err := attributevalue.MarshalMap(toAgentItem(agent))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.AgentsTableName),
		Item:                agentAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"), // Prevent overwriting existing agents.
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "agents.id", Err: fmt.Errorf("agent %s already exists", agent.ID)}
		}
		return nil, fmt.Errorf("failed to create agent in DynamoDB: %w", err)
	}
	return agent, nil
}

// GetAgent retrieves an agent with a strongly consistent read so the ledger
// version it carries is never older than the last committed ledger write.
func (s *Store) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.AgentsTableName),
		Key:            agentKey(agentID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get agent from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
	}

	var item agentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}
	agent := item.toModel()
	return &agent, nil
}

// ListAgents scans the agents table.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.AgentsTableName)}

	var agents []models.Agent
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agents: %w", err)
		}

		var page []agentItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
		}
		for _, item := range page {
			agents = append(agents, item.toModel())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

// UpdateAgentCachedBalance writes a balance computed from ledgerVersion. The write is
// rejected with storage.ErrStaleBalance when a newer version has already been stored.
func (s *Store) UpdateAgentCachedBalance(ctx context.Context, agentID string, balance decimal.Decimal, ledgerVersion int64, syncedAt time.Time) error {
	syncedAtAV, err := attributevalue.Marshal(syncedAt)
	if err != nil {
		return fmt.Errorf("failed to marshal last_synced_at: %w", err)
	}
	balanceAV, err := attributevalue.Marshal(decimalAV{balance})
	if err != nil {
		return fmt.Errorf("failed to marshal wallet_balance: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.AgentsTableName),
		Key:              agentKey(agentID),
		UpdateExpression: aws.String("SET wallet_balance = :balance, synced_version = :version, last_synced_at = :at"),
		ConditionExpression: aws.String("attribute_exists(id) AND " +
			"(attribute_not_exists(synced_version) OR synced_version <= :version)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":balance": balanceAV,
			":version": &types.AttributeValueMemberN{Value: fmt.Sprint(ledgerVersion)},
			":at":      syncedAtAV,
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return conditionFailure(condCheckFailed.Item, "agent", agentID, storage.ErrStaleBalance)
		}
		return fmt.Errorf("failed to update agent balance: %w", err)
	}
	return nil
}
