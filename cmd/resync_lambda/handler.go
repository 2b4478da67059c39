package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
)

// Syncer refreshes an agent's cached balance.
type Syncer interface {
	Sync(ctx context.Context, agentID string) (*wallet.SyncResult, error)
}

// Handler consumes deferred resync requests.
type Handler struct {
	syncer Syncer
}

// NewHandler creates a Handler.
func NewHandler(syncer Syncer) *Handler {
	return &Handler{syncer: syncer}
}

// HandleRequest syncs the agent named in each record. Records that fail with a
// retryable error are reported back so SQS redelivers only those.
func (h *Handler) HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, message := range sqsEvent.Records {
		var req models.ResyncRequest
		if err := json.Unmarshal([]byte(message.Body), &req); err != nil || req.AgentID == "" {
			// A malformed message will never succeed, so it is dropped instead of retried.
			slog.ErrorContext(ctx, "discarding malformed resync request", "message_id", message.MessageId, "error", err)
			continue
		}

		res, err := h.syncer.Sync(ctx, req.AgentID)
		switch {
		case errors.Is(err, wallet.ErrNotFound):
			slog.WarnContext(ctx, "agent no longer exists, discarding resync request", "message_id", message.MessageId, "agent_id", req.AgentID)
		case err != nil:
			slog.ErrorContext(ctx, "deferred resync failed", "message_id", message.MessageId, "agent_id", req.AgentID, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		default:
			slog.InfoContext(ctx, "deferred resync completed", "message_id", message.MessageId, "agent_id", req.AgentID,
				"balance", res.Balance.String(), "reason", req.Reason)
		}
	}

	return resp, nil
}
