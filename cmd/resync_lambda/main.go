package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/agent-wallet-ledger/pkg/app"
	"github.com/chris/agent-wallet-ledger/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	// The resync consumer doesn't schedule further resyncs; SQS redelivers failed records.
	a, err := app.Build(context.Background(), cfg, app.WithoutScheduler())
	if err != nil {
		log.Fatalf("failed to initialise: %v", err)
	}
	defer a.Close()

	lambda.Start(NewHandler(a.Engine).HandleRequest)
}
