package stores

import (
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// layoutTTL bounds how long a resolved layout can outlive the snapshot it was
// computed from.
const layoutTTL = time.Minute

// LayoutsStore caches resolved bubble layouts per identity
type LayoutsStore struct {
	identityCaches map[string]*types.IdentityLayoutCache
	mu             sync.RWMutex
	logger         *logging.ChanneledLogger
}

// NewLayoutsStore creates a new layouts cache store
func NewLayoutsStore(logger *logging.ChanneledLogger) *LayoutsStore {
	if logger != nil {
		logger.Cache().Info("Initializing layouts cache store")
	}
	return &LayoutsStore{
		identityCaches: make(map[string]*types.IdentityLayoutCache),
		logger:         logger,
	}
}

func (ls *LayoutsStore) getIdentityCache(identity string) (*types.IdentityLayoutCache, bool) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	cache, exists := ls.identityCaches[identity]
	return cache, exists
}

func (ls *LayoutsStore) ensureIdentityCache(identity string) *types.IdentityLayoutCache {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.identityCaches[identity] == nil {
		ls.identityCaches[identity] = &types.IdentityLayoutCache{
			Entries:      make(map[string]*types.LayoutEntry),
			LastAccessed: time.Now().UTC(),
		}
	}
	return ls.identityCaches[identity]
}

// GetLayout retrieves a resolved layout by its container key.
func (ls *LayoutsStore) GetLayout(identity, key string) (*types.LayoutEntry, bool) {
	start := time.Now()
	cache, exists := ls.getIdentityCache(identity)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	entry, found := cache.Entries[key]
	if !found || time.Since(entry.ComputedAt) > layoutTTL {
		if ls.logger != nil {
			ls.logger.Cache().Debug("Cache operation", "operation", "get", "type", "layout", "identity", identity, "key", key, "hit", false, "duration", time.Since(start))
		}
		return nil, false
	}

	if ls.logger != nil {
		ls.logger.Cache().Debug("Cache operation", "operation", "get", "type", "layout", "identity", identity, "key", key, "hit", true, "duration", time.Since(start))
	}
	return entry, true
}

// SetLayout stores a resolved layout.
func (ls *LayoutsStore) SetLayout(identity, key string, entry *types.LayoutEntry) {
	cache, exists := ls.getIdentityCache(identity)
	if !exists {
		cache = ls.ensureIdentityCache(identity)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.Entries[key] = entry
	cache.LastAccessed = time.Now().UTC()

	if ls.logger != nil {
		ls.logger.Cache().Debug("Cache operation", "operation", "set", "type", "layout", "identity", identity, "key", key)
	}
}

// InvalidateLayouts drops every resolved layout for an identity. Called after
// any mutation that moves or removes bubbles.
func (ls *LayoutsStore) InvalidateLayouts(identity string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.identityCaches, identity)

	if ls.logger != nil {
		ls.logger.Cache().Debug("Cache operation", "operation", "invalidate_identity", "type", "layout", "identity", identity)
	}
}

// InvalidateAll clears the store.
func (ls *LayoutsStore) InvalidateAll() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.identityCaches = make(map[string]*types.IdentityLayoutCache)
}

// Stats reports entry counts for health reporting.
func (ls *LayoutsStore) Stats() map[string]any {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	entries := 0
	for _, cache := range ls.identityCaches {
		cache.Mu.RLock()
		entries += len(cache.Entries)
		cache.Mu.RUnlock()
	}

	return map[string]any{
		"identities": len(ls.identityCaches),
		"entries":    entries,
	}
}
