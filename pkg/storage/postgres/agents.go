package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateAgent registers an agent with an empty cached balance.
func (s *Store) CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	created, err := scanAgent(s.DB.QueryRow(queryCtx, `
		INSERT INTO agents (id, name, wallet_balance, created_at)
		VALUES ($1, $2, $3::numeric, COALESCE($4, now()))
		RETURNING `+agentColumns,
		nullIfEmpty(agent.ID), agent.Name, agent.WalletBalance.String(), nullTime(agent.CreatedAt)))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", mapPgError(err))
	}
	return created, nil
}

// GetAgent retrieves an agent by its ID.
func (s *Store) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	agent, err := scanAgent(s.DB.QueryRow(queryCtx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, agentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// ListAgents lists all agents ordered by ID.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.DB.Query(queryCtx, `SELECT `+agentColumns+` FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	agents, err := collect(rows, scanAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents: %w", err)
	}
	return agents, nil
}

// UpdateAgentCachedBalance writes a balance computed from ledgerVersion unless a
// balance from a newer version is already stored.
func (s *Store) UpdateAgentCachedBalance(ctx context.Context, agentID string, balance decimal.Decimal, ledgerVersion int64, syncedAt time.Time) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.DB.Exec(queryCtx, `
		UPDATE agents
		SET wallet_balance = $2::numeric, synced_version = $3, last_synced_at = $4
		WHERE id = $1 AND synced_version <= $3
	`, agentID, balance.String(), ledgerVersion, syncedAt)
	if err != nil {
		return fmt.Errorf("failed to update agent balance: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var synced int64
	err = s.DB.QueryRow(queryCtx, `SELECT synced_version FROM agents WHERE id = $1`, agentID).Scan(&synced)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("agent %s: %w", agentID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load agent synced version: %w", err)
	}
	return fmt.Errorf("agent %s synced at version %d, write from version %d: %w", agentID, synced, ledgerVersion, storage.ErrStaleBalance)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
