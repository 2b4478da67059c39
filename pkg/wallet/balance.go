package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chris/agent-wallet-ledger/pkg/models"
	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the per-agent fallback of a batch calculation.
const DefaultBatchConcurrency = 8

// SignedAmount returns what tx contributes to its agent's balance. Only approved
// entries count. flagged is set for entries that need manual review: admin
// adjustments without a signed delta and unknown kinds, both counted as zero.
func SignedAmount(tx models.WalletTransaction) (amount decimal.Decimal, flagged bool) {
	if tx.Status != models.APPROVED {
		return decimal.Zero, false
	}

	switch tx.Kind {
	case models.KindTopup, models.KindRefund, models.KindCommission, models.KindCommissionDeposit:
		return tx.Amount, false
	case models.KindDeduction, models.KindWithdrawalDeduction:
		return tx.Amount.Neg(), false
	case models.KindAdminAdjustment:
		if tx.SignedDelta == nil {
			return decimal.Zero, true
		}
		return *tx.SignedDelta, false
	}
	return decimal.Zero, true
}

// Sum adds up the signed contributions of txs without rounding. It also returns
// the IDs of entries flagged for review.
func Sum(txs []models.WalletTransaction) (decimal.Decimal, []string) {
	total := decimal.Zero
	var flagged []string
	for _, tx := range txs {
		amount, review := SignedAmount(tx)
		if review {
			flagged = append(flagged, tx.ID)
			continue
		}
		total = total.Add(amount)
	}
	return total, flagged
}

// BatchResult holds the outcome of a batch calculation. Agents whose balance
// could not be computed are reported in Failed and carry a zero balance.
type BatchResult struct {
	Balances map[string]decimal.Decimal
	Failed   map[string]error
	// Fallback is set when the bulk read failed and balances were computed per agent.
	Fallback bool
}

// Calculator derives balances from the ledger.
type Calculator struct {
	ledger      storage.LedgerReader
	concurrency int
}

// NewCalculator creates a Calculator. A non-positive concurrency uses DefaultBatchConcurrency.
func NewCalculator(ledger storage.LedgerReader, concurrency int) *Calculator {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &Calculator{ledger: ledger, concurrency: concurrency}
}

// CalculateBalance returns the balance of an agent from its approved ledger entries.
func (c *Calculator) CalculateBalance(ctx context.Context, agentID string) (decimal.Decimal, error) {
	approved := models.APPROVED
	txs, err := c.ledger.QueryTransactionsByAgent(ctx, agentID, &approved)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load ledger of agent %s: %w", agentID, translateStoreError(err))
	}

	balance, flagged := Sum(txs)
	logFlagged(ctx, agentID, flagged)
	return balance, nil
}

// BatchCalculateBalances computes the balances of many agents with a single bulk
// read. When the bulk read fails every agent is computed on its own, concurrently,
// and a failing agent never prevents the others from completing.
func (c *Calculator) BatchCalculateBalances(ctx context.Context, agentIDs []string) BatchResult {
	ids := uniqueIDs(agentIDs)
	result := BatchResult{
		Balances: make(map[string]decimal.Decimal, len(ids)),
		Failed:   make(map[string]error),
	}
	if len(ids) == 0 {
		return result
	}

	txs, err := c.ledger.QueryTransactionsByAgents(ctx, ids)
	if err == nil {
		byAgent := make(map[string][]models.WalletTransaction, len(ids))
		for _, tx := range txs {
			byAgent[tx.AgentID] = append(byAgent[tx.AgentID], tx)
		}
		for _, id := range ids {
			balance, flagged := Sum(byAgent[id])
			logFlagged(ctx, id, flagged)
			result.Balances[id] = balance
		}
		return result
	}

	slog.WarnContext(ctx, "bulk ledger read failed, calculating balances per agent", "agents", len(ids), "error", err)
	result.Fallback = true

	var mu sync.Mutex
	// A plain Group: errgroup.WithContext would cancel the remaining agents on the first failure.
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			balance, err := c.CalculateBalance(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "balance calculation failed, defaulting to zero", "agent_id", id, "error", err)
				result.Balances[id] = decimal.Zero
				result.Failed[id] = err
				return nil
			}
			result.Balances[id] = balance
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func logFlagged(ctx context.Context, agentID string, flagged []string) {
	if len(flagged) == 0 {
		return
	}
	slog.WarnContext(ctx, "ledger entries counted as zero, manual review needed",
		"agent_id", agentID, "transaction_ids", flagged)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
