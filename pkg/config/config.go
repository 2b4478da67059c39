// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/wallet"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	StorageBackend string

	TransactionsTable string
	TopupsTable       string
	AgentsTable       string

	DatabaseURL string

	ResyncQueueURL string

	HTTPPort string
	LogLevel slog.Level

	SyncMaxAttempts    uint
	SyncInitialBackoff time.Duration
	BatchConcurrency   int
}

// Load reads a .env file when one is present and then builds the configuration
// from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates the configuration from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", BackendDynamoDB)),
		TransactionsTable:  os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME"),
		TopupsTable:        os.Getenv("DYNAMODB_TOPUPS_TABLE_NAME"),
		AgentsTable:        os.Getenv("DYNAMODB_AGENTS_TABLE_NAME"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ResyncQueueURL:     os.Getenv("SQS_RESYNC_QUEUE_URL"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		SyncMaxAttempts:    wallet.DefaultSyncConfig().MaxAttempts,
		SyncInitialBackoff: wallet.DefaultSyncConfig().InitialBackoff,
		BatchConcurrency:   wallet.DefaultBatchConcurrency,
	}

	var errs []error

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	// SYNC_MAX_ATTEMPTS can lower the attempt budget, never raise it above the default of 3.
	if v := os.Getenv("SYNC_MAX_ATTEMPTS"); v != "" {
		limit := wallet.DefaultSyncConfig().MaxAttempts
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 || uint(n) > limit {
			errs = append(errs, fmt.Errorf("SYNC_MAX_ATTEMPTS must be between 1 and %d, got %q", limit, v))
		}
		cfg.SyncMaxAttempts = uint(n)
	}
	if v := os.Getenv("SYNC_INITIAL_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("SYNC_INITIAL_BACKOFF must be a duration such as 2s, got %q", v))
		}
		cfg.SyncInitialBackoff = d
	}
	if v := os.Getenv("BATCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("BATCH_CONCURRENCY must be a positive integer, got %q", v))
		}
		cfg.BatchConcurrency = n
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings required by the selected backend are present.
func (c *Config) Validate() error {
	var missing []string

	switch c.StorageBackend {
	case BackendDynamoDB:
		if c.TransactionsTable == "" {
			missing = append(missing, "DYNAMODB_TRANSACTIONS_TABLE_NAME")
		}
		if c.TopupsTable == "" {
			missing = append(missing, "DYNAMODB_TOPUPS_TABLE_NAME")
		}
		if c.AgentsTable == "" {
			missing = append(missing, "DYNAMODB_AGENTS_TABLE_NAME")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want %s, %s or %s)", c.StorageBackend, BackendDynamoDB, BackendPostgres, BackendMemory)
	}

	if len(missing) > 0 {
		return errors.New("missing required environment variables for " + c.StorageBackend + ": " + strings.Join(missing, ", "))
	}
	return nil
}

// SyncConfig returns the synchronizer retry policy.
func (c *Config) SyncConfig() *wallet.SyncConfig {
	sc := wallet.DefaultSyncConfig()
	sc.MaxAttempts = c.SyncMaxAttempts
	sc.InitialBackoff = c.SyncInitialBackoff
	return &sc
}

// NewLogger returns a JSON logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
