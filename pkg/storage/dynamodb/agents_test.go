package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/chris/agent-wallet-ledger/pkg/storage/dynamodb/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateAgent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		agent, err := store.CreateAgent(context.Background(), &models.Agent{ID: "agent-1", Name: "Kiosk 12"})

		require.NoError(t, err)
		assert.False(t, agent.CreatedAt.IsZero())
	})

	t.Run("Already Exists", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.CreateAgent(context.Background(), &models.Agent{ID: "agent-1"})

		var ce *storage.ConstraintError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, storage.ConstraintDuplicate, ce.Kind)
	})
}

func TestGetAgent(t *testing.T) {
	mockClient := mocks.NewDynamoDBAPI(t)
	store := newStore(mockClient)

	agentAV, _ := attributevalue.MarshalMap(toAgentItem(&models.Agent{
		ID:            "agent-1",
		WalletBalance: decimal.RequireFromString("70.00"),
		LedgerVersion: 4,
		SyncedVersion: 3,
	}))
	mockClient.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.ConsistentRead != nil && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: agentAV}, nil)

	agent, err := store.GetAgent(context.Background(), "agent-1")

	require.NoError(t, err)
	assert.True(t, agent.WalletBalance.Equal(decimal.NewFromInt(70)))
	assert.True(t, agent.IsStale())
}

func TestUpdateAgentCachedBalanceDynamo(t *testing.T) {
	syncedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			version := in.ExpressionAttributeValues[":version"].(*types.AttributeValueMemberN).Value
			balance := in.ExpressionAttributeValues[":balance"].(*types.AttributeValueMemberN).Value
			sameVersionAllowed := strings.Contains(aws.ToString(in.ConditionExpression), "synced_version <= :version")
			return version == "7" && balance == "95" && sameVersionAllowed
		})).Return(&dynamodb.UpdateItemOutput{}, nil)

		err := store.UpdateAgentCachedBalance(context.Background(), "agent-1", decimal.NewFromInt(95), 7, syncedAt)

		assert.NoError(t, err)
	})

	t.Run("Newer Balance Already Stored", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newStore(mockClient)

		oldAV, _ := attributevalue.MarshalMap(toAgentItem(&models.Agent{ID: "agent-1", SyncedVersion: 9}))
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{Item: oldAV})

		err := store.UpdateAgentCachedBalance(context.Background(), "agent-1", decimal.NewFromInt(95), 7, syncedAt)

		assert.ErrorIs(t, err, storage.ErrStaleBalance)
	})

	t.Run("Missing Agent", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		err := store.UpdateAgentCachedBalance(context.Background(), "ghost", decimal.Zero, 1, syncedAt)

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
