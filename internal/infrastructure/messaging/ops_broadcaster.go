package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// OpsClient represents a single connected ops dashboard client.
type OpsClient struct {
	Conn     *websocket.Conn
	Identity string
	Send     chan []byte
}

// StatsFunc produces the per-identity stats payload sent on each tick.
type StatsFunc func(ctx context.Context, identity string) (any, error)

// OpsBroadcaster manages all connected ops clients and pushes traffic stats
// on a fixed interval.
type OpsBroadcaster struct {
	identityClients map[string]map[*OpsClient]bool
	register        chan *OpsClient
	unregister      chan *OpsClient
	statsFn         StatsFunc
	logger          *logging.ChanneledLogger
	mu              sync.RWMutex
	stop            chan struct{}
}

// NewOpsBroadcaster creates a new broadcaster instance.
func NewOpsBroadcaster(statsFn StatsFunc, logger *logging.ChanneledLogger) *OpsBroadcaster {
	return &OpsBroadcaster{
		identityClients: make(map[string]map[*OpsClient]bool),
		register:        make(chan *OpsClient),
		unregister:      make(chan *OpsClient),
		statsFn:         statsFn,
		logger:          logger,
		stop:            make(chan struct{}),
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *OpsBroadcaster) Run() {
	ticker := time.NewTicker(config.OpsFeedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return

		case client := <-b.register:
			b.mu.Lock()
			if _, ok := b.identityClients[client.Identity]; !ok {
				b.identityClients[client.Identity] = make(map[*OpsClient]bool)
			}
			b.identityClients[client.Identity][client] = true
			b.mu.Unlock()
			b.logger.SSE().Info("Ops client registered", "identity", client.Identity)

		case client := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.identityClients[client.Identity]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(b.identityClients, client.Identity)
					}
				}
			}
			b.mu.Unlock()
			b.logger.SSE().Info("Ops client unregistered", "identity", client.Identity)

		case <-ticker.C:
			b.broadcastStats()
		}
	}
}

// Register queues a client for registration.
func (b *OpsBroadcaster) Register(client *OpsClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *OpsBroadcaster) Unregister(client *OpsClient) {
	b.unregister <- client
}

// Shutdown stops the broadcaster loop.
func (b *OpsBroadcaster) Shutdown() {
	close(b.stop)
}

// broadcastStats gathers and sends the stats payload for every identity with
// active clients.
func (b *OpsBroadcaster) broadcastStats() {
	b.mu.RLock()
	identities := make([]string, 0, len(b.identityClients))
	for identity := range b.identityClients {
		identities = append(identities, identity)
	}
	b.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), config.OpsFeedTickInterval/2)
	defer cancel()

	for _, identity := range identities {
		payload, err := b.statsFn(ctx, identity)
		if err != nil {
			b.logger.SSE().Error("Failed to compute ops stats", "error", err.Error(), "identity", identity)
			continue
		}

		message, err := json.Marshal(payload)
		if err != nil {
			b.logger.SSE().Error("Failed to marshal ops stats", "error", err.Error(), "identity", identity)
			continue
		}

		b.mu.RLock()
		if clients, ok := b.identityClients[identity]; ok {
			for client := range clients {
				select {
				case client.Send <- message:
				default:
					// Slow client; skip this tick.
				}
			}
		}
		b.mu.RUnlock()
	}
}
