package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/agent-wallet-ledger/pkg/app"
	"github.com/chris/agent-wallet-ledger/pkg/config"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
)

// Reconciler refreshes stale cached balances.
type Reconciler interface {
	Reconcile(ctx context.Context, all bool) (wallet.SyncReport, error)
}

// HandleRequest is triggered by an EventBridge Schedule. It refreshes every
// cached balance that lags its ledger.
func HandleRequest(ctx context.Context, engine Reconciler, event events.CloudWatchEvent) error {
	slog.InfoContext(ctx, "Starting reconciliation of cached balances", "event_id", event.ID)

	report, err := engine.Reconcile(ctx, false)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reconcile balances", "error", err)
		return err
	}

	// Agents that still fail were handed to the resync queue by the synchronizer.
	for agentID, err := range report.Failed {
		slog.WarnContext(ctx, "agent balance still stale", "agent_id", agentID, "class", wallet.Classify(err), "error", err)
	}
	slog.InfoContext(ctx, "Reconciliation finished", "synced", len(report.Synced), "failed", len(report.Failed))
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialise: %v", err)
	}
	defer a.Close()

	lambda.Start(func(ctx context.Context, event events.CloudWatchEvent) error {
		return HandleRequest(ctx, a.Engine, event)
	})
}
