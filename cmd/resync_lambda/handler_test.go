package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	errs  map[string]error
	calls []string
}

func (f *fakeSyncer) Sync(ctx context.Context, agentID string) (*wallet.SyncResult, error) {
	f.calls = append(f.calls, agentID)
	if err := f.errs[agentID]; err != nil {
		return nil, err
	}
	return &wallet.SyncResult{AgentID: agentID, Balance: decimal.NewFromInt(1)}, nil
}

func record(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

func TestHandleRequest(t *testing.T) {
	syncer := &fakeSyncer{errs: map[string]error{
		"flaky": &wallet.TransientSyncError{AgentID: "flaky", Attempts: 3, Err: errors.New("throttled")},
		"gone":  fmt.Errorf("%w: agent gone", wallet.ErrNotFound),
	}}
	h := NewHandler(syncer)

	resp, err := h.HandleRequest(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"agent_id":"ok","reason":"timeout"}`),
		record("m2", `{"agent_id":"flaky"}`),
		record("m3", `{"agent_id":"gone"}`),
		record("m4", `not-json`),
		record("m5", `{}`),
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "flaky", "gone"}, syncer.calls)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "m2", resp.BatchItemFailures[0].ItemIdentifier)
}
