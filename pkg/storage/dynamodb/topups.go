package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
)

func topupKey(requestID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: requestID}}
}

// InsertTopupRequest stores a new request after checking its agent exists.
func (s *Store) InsertTopupRequest(ctx context.Context, req *models.TopupRequest) error {
	reqAV, err := attributevalue.MarshalMap(toTopupItem(req))
	if err != nil {
		return fmt.Errorf("failed to marshal top-up request: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:           aws.String(s.AgentsTableName),
					Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: req.AgentID}},
					ConditionExpression: aws.String("attribute_exists(id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.TopupsTableName),
					Item:                reqAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if reasons, ok := cancellationReasons(err); ok {
			if conditionFailedAt(reasons, 0) {
				return &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Constraint: "agents.id", Err: fmt.Errorf("agent %s does not exist", req.AgentID)}
			}
			if conditionFailedAt(reasons, 1) {
				return &storage.ConstraintError{Kind: storage.ConstraintDuplicate, Constraint: "topup_requests.id", Err: fmt.Errorf("top-up request %s already exists", req.ID)}
			}
		}
		return fmt.Errorf("failed to insert top-up request: %w", err)
	}
	return nil
}

// GetTopupRequest retrieves a top-up request by its ID.
func (s *Store) GetTopupRequest(ctx context.Context, requestID string) (*models.TopupRequest, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TopupsTableName),
		Key:            topupKey(requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get top-up request from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("top-up request %s: %w", requestID, storage.ErrNotFound)
	}

	var item topupItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top-up request: %w", err)
	}
	req := item.toModel()
	return &req, nil
}

// ListTopupRequestsByAgent retrieves all requests of an agent, oldest first.
func (s *Store) ListTopupRequestsByAgent(ctx context.Context, agentID string) ([]models.TopupRequest, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TopupsTableName),
		IndexName:              aws.String(agentIDIndex),
		KeyConditionExpression: aws.String("agent_id = :agent_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":agent_id": &types.AttributeValueMemberS{Value: agentID},
		},
	}

	var reqs []models.TopupRequest
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query top-up requests by agent ID: %w", err)
		}

		var page []topupItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top-up requests: %w", err)
		}
		for _, item := range page {
			reqs = append(reqs, item.toModel())
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return reqs, nil
}

// ApproveTopup marks a pending request approved and records its ledger entry in
// a single transaction. Either both writes land or neither does.
func (s *Store) ApproveTopup(ctx context.Context, requestID string, approval models.TopupApproval) (*models.TopupRequest, error) {
	ledgerItems, err := s.ledgerInsertItems(approval.Transaction)
	if err != nil {
		return nil, err
	}

	approvedAtAV, err := attributevalue.Marshal(approval.ApprovedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approved_at: %w", err)
	}

	approve := types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.TopupsTableName),
			Key:       topupKey(requestID),
			UpdateExpression: aws.String("SET #status = :approved, approved_at = :at, approved_by = :admin, " +
				"resolved_at = :at, resolved_by = :admin, transaction_id = :tx_id"),
			ConditionExpression:      aws.String("attribute_exists(id) AND #status = :pending"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":approved": &types.AttributeValueMemberS{Value: string(models.APPROVED)},
				":pending":  &types.AttributeValueMemberS{Value: string(models.PENDING)},
				":at":       approvedAtAV,
				":admin":    &types.AttributeValueMemberS{Value: approval.AdminID},
				":tx_id":    &types.AttributeValueMemberS{Value: approval.Transaction.ID},
			},
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		},
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: append([]types.TransactWriteItem{approve}, ledgerItems...),
	}
	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if reasons, ok := cancellationReasons(err); ok {
			if conditionFailedAt(reasons, 0) {
				return nil, conditionFailure(reasons[0].Item, "top-up request", requestID, storage.ErrInvalidState)
			}
			tx := approval.Transaction
			return nil, mapLedgerInsertError(err, reasons, 1, tx.AgentID, tx.ID, tx.ReferenceCode)
		}
		return nil, fmt.Errorf("failed to approve top-up request: %w", err)
	}

	return s.GetTopupRequest(ctx, requestID)
}

// UpdateTopupRequestStatus resolves a pending request without touching the ledger.
func (s *Store) UpdateTopupRequestStatus(ctx context.Context, requestID string, status models.Status, adminID string) (*models.TopupRequest, error) {
	resolvedAtAV, err := attributevalue.Marshal(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resolved_at: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.TopupsTableName),
		Key:                      topupKey(requestID),
		UpdateExpression:         aws.String("SET #status = :status, approved_by = :admin, resolved_by = :admin, resolved_at = :at"),
		ConditionExpression:      aws.String("attribute_exists(id) AND #status = :pending"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":pending": &types.AttributeValueMemberS{Value: string(models.PENDING)},
			":admin":   &types.AttributeValueMemberS{Value: adminID},
			":at":      resolvedAtAV,
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, conditionFailure(condCheckFailed.Item, "top-up request", requestID, storage.ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to update top-up request status: %w", err)
	}

	var item topupItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated top-up request: %w", err)
	}
	req := item.toModel()
	return &req, nil
}

// DeleteTopupRequest removes a resolved request. Pending requests must be
// approved or rejected first.
func (s *Store) DeleteTopupRequest(ctx context.Context, requestID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.TopupsTableName),
		Key:                      topupKey(requestID),
		ConditionExpression:      aws.String("attribute_exists(id) AND #status <> :pending"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(models.PENDING)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	if _, err := s.Client.DeleteItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return conditionFailure(condCheckFailed.Item, "top-up request", requestID, storage.ErrInvalidState)
		}
		return fmt.Errorf("failed to delete top-up request from DynamoDB: %w", err)
	}
	return nil
}
