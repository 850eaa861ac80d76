// Package interfaces defines cache operation contracts for per-identity radar state.
package interfaces

import (
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
)

// SnapshotCache defines operations for snapshot caching. Keys are always the
// (mode, identity) pair; a snapshot fetched in one mode is invisible to the
// other.
type SnapshotCache interface {
	GetSnapshot(mode, identity string) (*types.SnapshotEntry, bool)
	SetSnapshot(mode, identity string, entry *types.SnapshotEntry)
	InvalidateSnapshot(mode, identity string)
	InvalidateIdentity(identity string)
	InvalidateMode(mode string)
}

// LayoutCache defines operations for resolved layout caching.
type LayoutCache interface {
	GetLayout(identity, key string) (*types.LayoutEntry, bool)
	SetLayout(identity, key string, entry *types.LayoutEntry)
	InvalidateLayouts(identity string)
}

// Cache is the main interface combining all cache operations.
type Cache interface {
	SnapshotCache
	LayoutCache
	InvalidateAll()
	Health() map[string]any
}

type CacheStats struct {
	Hits   int   `json:"hits"`
	Misses int   `json:"misses"`
	Size   int64 `json:"size"`
}

type CacheTTL time.Duration

const (
	TTLNever     CacheTTL = CacheTTL(0)
	TTL15Seconds CacheTTL = CacheTTL(15 * time.Second)
	TTL1Minute   CacheTTL = CacheTTL(time.Minute)
	TTL5Minutes  CacheTTL = CacheTTL(5 * time.Minute)
)
