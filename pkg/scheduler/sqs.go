package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/chris/agent-wallet-ledger/pkg/models"
)

// maxDelay is the largest per-message delay SQS accepts.
const maxDelay = 15 * time.Minute

// SQSAPI is the subset of the SQS client used by the SQSScheduler.
//
//go:generate mockery --name SQSAPI --output ./mocks --outpkg mocks
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSScheduler implements the ResyncScheduler interface using AWS SQS.
type SQSScheduler struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSScheduler creates a new SQSScheduler.
func NewSQSScheduler(client SQSAPI, queueURL string) *SQSScheduler {
	return &SQSScheduler{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ ResyncScheduler = (*SQSScheduler)(nil)

// ScheduleResync sends the request to the resync queue. Delays beyond the SQS
// limit are clamped to 15 minutes.
func (s *SQSScheduler) ScheduleResync(ctx context.Context, req *models.ResyncRequest, delay time.Duration) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal resync request for SQS: %w", err)
	}

	delay = min(max(delay, 0), maxDelay)

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"agent_id": {DataType: aws.String("String"), StringValue: aws.String(req.AgentID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
