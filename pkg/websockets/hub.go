package websockets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	mu   sync.Mutex // gorilla connections allow a single concurrent writer
	conn Conn
}

// Hub keeps the open local WebSocket connections and broadcasts messages to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Make sure we conform to the interfaces
var (
	_ ConnectionManager = (*Hub)(nil)
	_ Publisher         = (*Hub)(nil)
)

// AddConnection registers a connection under connectionID.
func (h *Hub) AddConnection(ctx context.Context, connectionID string, conn Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[connectionID]; ok {
		return fmt.Errorf("connection %s already registered", connectionID)
	}
	h.clients[connectionID] = &client{conn: conn}
	return nil
}

// RemoveConnection forgets a connection. Removing an unknown connection is not an error.
func (h *Hub) RemoveConnection(ctx context.Context, connectionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, connectionID)
	return nil
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends a message to all connected clients. Connections that fail to
// accept the write are closed and dropped.
func (h *Hub) Publish(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for connectionID, c := range targets {
		c.mu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, payload)
		c.mu.Unlock()

		if err != nil {
			slog.Info("stale connection found, deleting", "connectionId", connectionID, "error", err)
			_ = c.conn.Close()
			if err := h.RemoveConnection(ctx, connectionID); err != nil {
				slog.Error("failed to delete stale connection", "error", err)
			}
		}
	}
	return nil
}
