// Package types defines cache data structures for per-identity radar state.
package types

import (
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/geometry"
)

// SnapshotEntry is one cached snapshot. Mode is part of the entry so a
// cached mock snapshot can never be served after a switch to live.
type SnapshotEntry struct {
	Data     *radar.AppData `json:"data"`
	Mode     string         `json:"mode"`
	LoadedAt time.Time      `json:"loadedAt"`
	Warnings int            `json:"warnings"`
}

// IdentitySnapshotCache holds every cached snapshot for one identity,
// keyed by mode.
type IdentitySnapshotCache struct {
	Entries      map[string]*SnapshotEntry
	LastAccessed time.Time
	Mu           sync.RWMutex // Exported for access
}

// LayoutEntry is one resolved bubble layout for a specific container.
type LayoutEntry struct {
	Positions  []geometry.Point `json:"positions"`
	LeadIDs    []string         `json:"leadIds"`
	Sizes      []float64        `json:"sizes"`
	ComputedAt time.Time        `json:"computedAt"`
}

// IdentityLayoutCache holds resolved layouts for one identity, keyed by
// "mode:profile:widthxheight".
type IdentityLayoutCache struct {
	Entries      map[string]*LayoutEntry
	LastAccessed time.Time
	Mu           sync.RWMutex // Exported for access
}
