package wallet

import "github.com/chris/agent-wallet-ledger/pkg/models"

// Outcome is the result of an administrative action. Synced and SyncWarning
// separate "recorded and balance refreshed" from "recorded, balance refresh
// delayed"; the action itself is committed in both cases.
type Outcome struct {
	Status      models.Status
	Request     *models.TopupRequest
	Transaction *models.WalletTransaction
	Synced      bool
	Sync        *SyncResult
	SyncWarning *TransientSyncError
}
