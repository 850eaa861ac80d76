// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages identity-scoped SSE connections for radar updates.
type SSEBroadcaster struct {
	identityClients map[string][]chan string // identity -> []channels
	mu              sync.Mutex
	logger          *logging.ChanneledLogger
}

var (
	globalBroadcaster *SSEBroadcaster
	once              sync.Once
)

// NewSSEBroadcaster creates the singleton SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	once.Do(func() {
		globalBroadcaster = &SSEBroadcaster{
			identityClients: make(map[string][]chan string),
			logger:          logger,
		}
	})
	return globalBroadcaster
}

// AddClient registers a new SSE client for an identity.
func (b *SSEBroadcaster) AddClient(identity string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.identityClients[identity] = append(b.identityClients[identity], ch)

	b.logger.SSE().Debug("SSE client registered", "identity", identity)
	return ch
}

// RemoveClient removes an SSE client for an identity.
func (b *SSEBroadcaster) RemoveClient(ch chan string, identity string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.identityClients[identity]; exists {
		newClients := make([]chan string, 0, len(clients)-1)
		for _, client := range clients {
			if client != ch {
				newClients = append(newClients, client)
			}
		}
		b.identityClients[identity] = newClients

		if len(b.identityClients[identity]) == 0 {
			delete(b.identityClients, identity)
		}
	}
	b.logger.SSE().Debug("SSE client unregistered", "identity", identity)
}

// GetConnectionCount returns the connection count for an identity.
func (b *SSEBroadcaster) GetConnectionCount(identity string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.identityClients[identity])
}

// BroadcastSnapshotUpdated tells every client of an identity to refetch the
// snapshot, typically after a purchase or a mode switch.
func (b *SSEBroadcaster) BroadcastSnapshotUpdated(identity, reason string) {
	b.broadcastEvent(identity, "snapshot_updated", map[string]string{"reason": reason})
}

// BroadcastLeadPurchased announces a completed purchase to the identity's clients.
func (b *SSEBroadcaster) BroadcastLeadPurchased(identity, sessionID, purchaseID string) {
	b.broadcastEvent(identity, "lead_purchased", map[string]string{
		"sessionId":  sessionID,
		"purchaseId": purchaseID,
	})
}

// BroadcastModeChanged announces a data mode switch to every connected client.
func (b *SSEBroadcaster) BroadcastModeChanged(mode string) {
	b.mu.Lock()
	identities := make([]string, 0, len(b.identityClients))
	for identity := range b.identityClients {
		identities = append(identities, identity)
	}
	b.mu.Unlock()

	for _, identity := range identities {
		b.broadcastEvent(identity, "mode_changed", map[string]string{"mode": mode})
	}
}

func (b *SSEBroadcaster) broadcastEvent(identity, event string, payload map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in broadcastEvent", "error", r, "identity", identity, "event", event)
		}
	}()

	payloadJSON, _ := json.Marshal(payload)
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, payloadJSON)

	b.logger.SSE().Debug("Broadcasting to identity", "message", strings.ReplaceAll(message, "\n", "\\n"), "identity", identity, "event", event)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.identityClients[identity] {
		select {
		case ch <- message:
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "identity", identity, "event", event)
		}
	}
}
