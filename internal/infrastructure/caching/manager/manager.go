// Package manager provides centralized cache operations with identity isolation
package manager

import (
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/interfaces"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/stores"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// Interface assertion to ensure Manager implements the cache contract.
var _ interfaces.Cache = (*Manager)(nil)

// Manager provides centralized cache operations by delegating to specialized stores.
type Manager struct {
	Mu             sync.RWMutex
	LastAccessed   map[string]time.Time
	snapshotsStore *stores.SnapshotsStore
	layoutsStore   *stores.LayoutsStore
	logger         *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"snapshots", "layouts"})
	}

	return &Manager{
		LastAccessed:   make(map[string]time.Time),
		snapshotsStore: stores.NewSnapshotsStore(logger),
		layoutsStore:   stores.NewLayoutsStore(logger),
		logger:         logger,
	}
}

func (m *Manager) updateIdentityAccessTime(identity string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastAccessed[identity] = time.Now().UTC()
}

// =============================================================================
// Snapshot Operations
// =============================================================================

func (m *Manager) GetSnapshot(mode, identity string) (*types.SnapshotEntry, bool) {
	m.updateIdentityAccessTime(identity)
	return m.snapshotsStore.GetSnapshot(mode, identity)
}

func (m *Manager) SetSnapshot(mode, identity string, entry *types.SnapshotEntry) {
	m.updateIdentityAccessTime(identity)
	m.snapshotsStore.SetSnapshot(mode, identity, entry)
}

func (m *Manager) InvalidateSnapshot(mode, identity string) {
	m.snapshotsStore.InvalidateSnapshot(mode, identity)
	m.layoutsStore.InvalidateLayouts(identity)
}

func (m *Manager) InvalidateIdentity(identity string) {
	m.snapshotsStore.InvalidateIdentity(identity)
	m.layoutsStore.InvalidateLayouts(identity)

	m.Mu.Lock()
	delete(m.LastAccessed, identity)
	m.Mu.Unlock()
}

func (m *Manager) InvalidateMode(mode string) {
	m.snapshotsStore.InvalidateMode(mode)
	// Layouts derive from snapshots; a mode switch invalidates them all.
	m.layoutsStore.InvalidateAll()
}

// =============================================================================
// Layout Operations
// =============================================================================

func (m *Manager) GetLayout(identity, key string) (*types.LayoutEntry, bool) {
	return m.layoutsStore.GetLayout(identity, key)
}

func (m *Manager) SetLayout(identity, key string, entry *types.LayoutEntry) {
	m.layoutsStore.SetLayout(identity, key, entry)
}

func (m *Manager) InvalidateLayouts(identity string) {
	m.layoutsStore.InvalidateLayouts(identity)
}

// =============================================================================
// Global Operations
// =============================================================================

func (m *Manager) InvalidateAll() {
	start := time.Now()
	m.snapshotsStore.InvalidateAll()
	m.layoutsStore.InvalidateAll()

	m.Mu.Lock()
	m.LastAccessed = make(map[string]time.Time)
	m.Mu.Unlock()

	if m.logger != nil {
		m.logger.Cache().Info("All caches invalidated", "duration", time.Since(start))
	}
}

func (m *Manager) Health() map[string]any {
	m.Mu.RLock()
	identities := len(m.LastAccessed)
	m.Mu.RUnlock()

	return map[string]any{
		"status":     "healthy",
		"identities": identities,
		"snapshots":  m.snapshotsStore.Stats(),
		"layouts":    m.layoutsStore.Stats(),
	}
}
