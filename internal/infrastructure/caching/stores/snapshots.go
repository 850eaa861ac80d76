// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// SnapshotsStore implements snapshot caching with identity isolation
type SnapshotsStore struct {
	identityCaches map[string]*types.IdentitySnapshotCache
	mu             sync.RWMutex
	logger         *logging.ChanneledLogger
}

// NewSnapshotsStore creates a new snapshots cache store
func NewSnapshotsStore(logger *logging.ChanneledLogger) *SnapshotsStore {
	if logger != nil {
		logger.Cache().Info("Initializing snapshots cache store", "ttl", config.SnapshotTTL)
	}
	return &SnapshotsStore{
		identityCaches: make(map[string]*types.IdentitySnapshotCache),
		logger:         logger,
	}
}

func (ss *SnapshotsStore) getIdentityCache(identity string) (*types.IdentitySnapshotCache, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	cache, exists := ss.identityCaches[identity]
	return cache, exists
}

func (ss *SnapshotsStore) ensureIdentityCache(identity string) *types.IdentitySnapshotCache {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.identityCaches[identity] == nil {
		ss.identityCaches[identity] = &types.IdentitySnapshotCache{
			Entries:      make(map[string]*types.SnapshotEntry),
			LastAccessed: time.Now().UTC(),
		}
	}
	return ss.identityCaches[identity]
}

// GetSnapshot retrieves a cached snapshot for the (mode, identity) pair.
// Entries older than the configured TTL report a miss.
func (ss *SnapshotsStore) GetSnapshot(mode, identity string) (*types.SnapshotEntry, bool) {
	start := time.Now()
	cache, exists := ss.getIdentityCache(identity)
	if !exists {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "mode", mode, "identity", identity, "hit", false, "reason", "identity_not_initialized", "duration", time.Since(start))
		}
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	entry, found := cache.Entries[mode]
	if !found {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "mode", mode, "identity", identity, "hit", false, "duration", time.Since(start))
		}
		return nil, false
	}

	if time.Since(entry.LoadedAt) > config.SnapshotTTL {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "mode", mode, "identity", identity, "hit", false, "reason", "expired", "duration", time.Since(start))
		}
		return nil, false
	}

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "mode", mode, "identity", identity, "hit", true, "duration", time.Since(start))
	}
	return entry, true
}

// SetSnapshot stores a snapshot for the (mode, identity) pair.
func (ss *SnapshotsStore) SetSnapshot(mode, identity string, entry *types.SnapshotEntry) {
	start := time.Now()
	cache, exists := ss.getIdentityCache(identity)
	if !exists {
		cache = ss.ensureIdentityCache(identity)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Entries[mode] = entry
	cache.LastAccessed = time.Now().UTC()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "set", "type", "snapshot", "mode", mode, "identity", identity, "duration", time.Since(start))
	}
}

// InvalidateSnapshot removes one (mode, identity) entry.
func (ss *SnapshotsStore) InvalidateSnapshot(mode, identity string) {
	cache, exists := ss.getIdentityCache(identity)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	delete(cache.Entries, mode)

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "invalidate", "type", "snapshot", "mode", mode, "identity", identity)
	}
}

// InvalidateIdentity removes every cached snapshot for an identity.
func (ss *SnapshotsStore) InvalidateIdentity(identity string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.identityCaches, identity)

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "invalidate_identity", "type", "snapshot", "identity", identity)
	}
}

// InvalidateMode removes the given mode's entry for every identity. Used on
// mode switches so no one keeps serving the previous mode's data.
func (ss *SnapshotsStore) InvalidateMode(mode string) {
	start := time.Now()
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	count := 0
	for _, cache := range ss.identityCaches {
		cache.Mu.Lock()
		if _, ok := cache.Entries[mode]; ok {
			delete(cache.Entries, mode)
			count++
		}
		cache.Mu.Unlock()
	}

	if ss.logger != nil {
		ss.logger.Cache().Info("Mode snapshots invalidated", "mode", mode, "count", count, "duration", time.Since(start))
	}
}

// InvalidateAll clears the store.
func (ss *SnapshotsStore) InvalidateAll() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.identityCaches = make(map[string]*types.IdentitySnapshotCache)

	if ss.logger != nil {
		ss.logger.Cache().Info("Snapshots cache store cleared")
	}
}

// Stats reports entry counts for health reporting.
func (ss *SnapshotsStore) Stats() map[string]any {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	entries := 0
	for _, cache := range ss.identityCaches {
		cache.Mu.RLock()
		entries += len(cache.Entries)
		cache.Mu.RUnlock()
	}

	return map[string]any{
		"identities": len(ss.identityCaches),
		"entries":    entries,
	}
}
