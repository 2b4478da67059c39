package websockets

import "time"

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeBalanceSynced is sent after an agent's cached balance was refreshed.
	MessageTypeBalanceSynced MessageType = "balanceSynced"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// BalanceSyncedPayload is the payload for a balanceSynced message.
type BalanceSyncedPayload struct {
	AgentID       string    `json:"agent_id"`
	Balance       string    `json:"balance"`
	LedgerVersion int64     `json:"ledger_version"`
	SyncedAt      time.Time `json:"synced_at"`
}
