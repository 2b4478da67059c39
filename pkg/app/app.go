// Package app assembles the store, scheduler and engine shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/agent-wallet-ledger/pkg/config"
	"github.com/chris/agent-wallet-ledger/pkg/scheduler"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	dydbstore "github.com/chris/agent-wallet-ledger/pkg/storage/dynamodb"
	"github.com/chris/agent-wallet-ledger/pkg/storage/memory"
	pgstore "github.com/chris/agent-wallet-ledger/pkg/storage/postgres"
	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/chris/agent-wallet-ledger/pkg/websockets"
)

// App holds the wired dependencies of a binary.
type App struct {
	Store  storage.Storage
	Engine *wallet.Engine

	closers []func()
}

type options struct {
	publisher     websockets.Publisher
	skipScheduler bool
	migrate       bool
}

// Option customizes Build.
type Option func(*options)

// WithPublisher announces synchronized balances through p.
func WithPublisher(p websockets.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithoutScheduler disables deferred resyncs, e.g. in the consumer of the resync queue.
func WithoutScheduler() Option {
	return func(o *options) { o.skipScheduler = true }
}

// WithMigrations applies the Postgres schema on startup.
func WithMigrations() Option {
	return func(o *options) { o.migrate = true }
}

// Build creates the store selected by cfg and an engine on top of it.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	switch cfg.StorageBackend {
	case config.BackendDynamoDB:
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		a.Store = dydbstore.New(dynamodb.NewFromConfig(c), cfg.TransactionsTable, cfg.TopupsTable, cfg.AgentsTable)
	case config.BackendPostgres:
		pool, err := pgstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		store := pgstore.New(pool)
		if o.migrate {
			if err := store.Migrate(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
		a.Store = store
	case config.BackendMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		a.Store = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	engineOpts := wallet.Options{
		Publisher:        o.publisher,
		Sync:             cfg.SyncConfig(),
		BatchConcurrency: cfg.BatchConcurrency,
	}
	if !o.skipScheduler && cfg.ResyncQueueURL != "" {
		c, err := loadAWS()
		if err != nil {
			a.Close()
			return nil, err
		}
		engineOpts.Scheduler = scheduler.NewSQSScheduler(sqs.NewFromConfig(c), cfg.ResyncQueueURL)
	}

	a.Engine = wallet.NewEngine(a.Store, engineOpts)
	slog.Info("engine ready", "storage_backend", cfg.StorageBackend, "deferred_resync", engineOpts.Scheduler != nil)
	return a, nil
}

// Close releases connections opened by Build.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
