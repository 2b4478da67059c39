package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDynamoEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "dynamodb")
	t.Setenv("DYNAMODB_TRANSACTIONS_TABLE_NAME", "transactions")
	t.Setenv("DYNAMODB_TOPUPS_TABLE_NAME", "topups")
	t.Setenv("DYNAMODB_AGENTS_TABLE_NAME", "agents")
	for _, key := range []string{"HTTP_PORT", "LOG_LEVEL", "SYNC_MAX_ATTEMPTS", "SYNC_INITIAL_BACKOFF", "BATCH_CONCURRENCY"} {
		t.Setenv(key, "")
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		setDynamoEnv(t)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendDynamoDB, cfg.StorageBackend)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, uint(3), cfg.SyncMaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.SyncInitialBackoff)
		assert.Equal(t, 8, cfg.BatchConcurrency)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	})

	t.Run("Overrides", func(t *testing.T) {
		setDynamoEnv(t)
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("SYNC_MAX_ATTEMPTS", "2")
		t.Setenv("SYNC_INITIAL_BACKOFF", "500ms")
		t.Setenv("BATCH_CONCURRENCY", "16")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.HTTPPort)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

		sc := cfg.SyncConfig()
		assert.Equal(t, uint(2), sc.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, sc.InitialBackoff)
		assert.Equal(t, time.Minute, sc.ResyncDelay)
		assert.Equal(t, 16, cfg.BatchConcurrency)
	})

	t.Run("Missing Tables", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "dynamodb")
		t.Setenv("DYNAMODB_TRANSACTIONS_TABLE_NAME", "transactions")
		t.Setenv("DYNAMODB_TOPUPS_TABLE_NAME", "")
		t.Setenv("DYNAMODB_AGENTS_TABLE_NAME", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DYNAMODB_TOPUPS_TABLE_NAME")
		assert.Contains(t, err.Error(), "DYNAMODB_AGENTS_TABLE_NAME")
	})

	t.Run("Postgres Needs Database URL", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("Memory", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "MEMORY")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.StorageBackend)
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sqlite")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "unknown STORAGE_BACKEND")
	})

	t.Run("Attempts Above Default", func(t *testing.T) {
		setDynamoEnv(t)
		t.Setenv("SYNC_MAX_ATTEMPTS", "5")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SYNC_MAX_ATTEMPTS must be between 1 and 3")
	})

	t.Run("Invalid Numbers", func(t *testing.T) {
		setDynamoEnv(t)
		t.Setenv("SYNC_MAX_ATTEMPTS", "0")
		t.Setenv("BATCH_CONCURRENCY", "many")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SYNC_MAX_ATTEMPTS")
		assert.Contains(t, err.Error(), "BATCH_CONCURRENCY")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelWarn}
	logger := cfg.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "agent_id", "agent-a")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"agent_id":"agent-a"`)
}
