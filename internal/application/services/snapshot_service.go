package services

import (
	"context"
	"fmt"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// SnapshotService assembles, caches, and serves per-identity snapshots. The
// data source is chosen by the active mode on every call; a snapshot fetched
// under one mode never answers a request made under another.
type SnapshotService struct {
	sources map[string]repositories.SnapshotSource
	cache   *manager.Manager
	mode    *ModeService
	logger  *logging.ChanneledLogger
}

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(sources map[string]repositories.SnapshotSource, cache *manager.Manager, mode *ModeService, logger *logging.ChanneledLogger) *SnapshotService {
	return &SnapshotService{
		sources: sources,
		cache:   cache,
		mode:    mode,
		logger:  logger,
	}
}

// LoadSnapshot returns the identity's snapshot, from cache when fresh. The
// returned value is a deep copy; callers may mutate it freely.
func (s *SnapshotService) LoadSnapshot(ctx context.Context, identity string, forceRefresh bool) (*radar.AppData, error) {
	mode := s.mode.Get()

	if !forceRefresh {
		if entry, ok := s.cache.GetSnapshot(mode, identity); ok {
			return entry.Data.Clone(), nil
		}
	}

	start := time.Now()
	source, ok := s.sources[mode]
	if !ok {
		return nil, fmt.Errorf("no data source for mode %q", mode)
	}

	s.logger.Snapshot().Debug("Fetching snapshot", "identity", identity, "mode", mode, "forceRefresh", forceRefresh)

	rawUser, err := source.FetchUser(ctx, identity)
	if err != nil {
		s.logger.Snapshot().Error("Snapshot user fetch failed", "error", err.Error(), "identity", identity, "mode", mode)
		return nil, err
	}
	if rawUser == nil {
		return nil, fmt.Errorf("unknown identity %q", identity)
	}

	sessions, err := source.FetchSessions(ctx, identity, config.SessionFetchLimit)
	if err != nil {
		return nil, err
	}
	purchases, err := source.FetchPurchases(ctx, identity)
	if err != nil {
		return nil, err
	}
	listings, err := source.FetchListings(ctx, identity)
	if err != nil {
		return nil, err
	}
	feed, err := source.FetchFeed(ctx, identity, config.FeedFetchLimit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rawLeads := make([]radar.RawLead, 0, len(sessions)+len(purchases))
	rawLeads = append(rawLeads, sessions...)
	rawLeads = append(rawLeads, purchases...)
	for i := range rawLeads {
		enrichLead(&rawLeads[i], i)
	}

	data, warnings, err := radar.ParseSnapshot(rawUser, rawLeads, listings, feed, now)
	if err != nil {
		s.logger.Snapshot().Error("Snapshot parse failed", "error", err.Error(), "identity", identity, "mode", mode)
		return nil, err
	}
	for _, w := range warnings {
		s.logger.Snapshot().Warn("Dropped invalid snapshot row", "identity", identity, "mode", mode, "detail", w.String())
	}

	// A mode switch while we were fetching makes this snapshot stale; serve
	// it to the caller but keep it out of the cache.
	if current := s.mode.Get(); current != mode {
		s.logger.Snapshot().Warn("Mode changed during fetch, skipping cache write", "identity", identity, "fetchedMode", mode, "currentMode", current)
		return data, nil
	}

	s.cache.SetSnapshot(mode, identity, &types.SnapshotEntry{
		Data:     data,
		Mode:     mode,
		LoadedAt: now,
		Warnings: len(warnings),
	})

	s.logger.Snapshot().Info("Snapshot loaded", "identity", identity, "mode", mode, "leads", len(data.Leads), "listings", len(data.Listings), "feed", len(data.Feed), "warnings", len(warnings), "duration", time.Since(start))
	return data.Clone(), nil
}

// ReplaceSnapshot installs a new snapshot for the identity under the current
// mode. Used by the purchase orchestrator for optimistic apply and rollback.
// The write is skipped if the mode changed since the snapshot was derived.
func (s *SnapshotService) ReplaceSnapshot(identity, mode string, data *radar.AppData) {
	if current := s.mode.Get(); current != mode {
		s.logger.Snapshot().Warn("Skipping stale snapshot write", "identity", identity, "snapshotMode", mode, "currentMode", current)
		return
	}
	s.cache.SetSnapshot(mode, identity, &types.SnapshotEntry{
		Data:     data.Clone(),
		Mode:     mode,
		LoadedAt: time.Now().UTC(),
	})
	s.cache.InvalidateLayouts(identity)
}

// Invalidate drops the identity's cached snapshot for the current mode.
func (s *SnapshotService) Invalidate(identity string) {
	s.cache.InvalidateSnapshot(s.mode.Get(), identity)
}

// Mode exposes the active mode for callers that pair snapshot reads with
// later writes.
func (s *SnapshotService) Mode() string {
	return s.mode.Get()
}

// enrichLead fills the presentation fields the backing rows do not store.
// Everything derived here is stable across refetches for the same session.
func enrichLead(lead *radar.RawLead, index int) {
	sessionID := lead.SessionID
	if sessionID == "" {
		sessionID = lead.ID
	}
	grade := radar.Grade(lead.Grade)

	if lead.Name == "" {
		lead.Name = radar.DisplayName(sessionID)
	}
	if lead.Intent == 0 {
		lead.Intent = radar.IntentOf(grade, sessionID)
	}
	if lead.Price == 0 && lead.Status == string(radar.StatusNew) {
		lead.Price = radar.PriceOf(grade)
	}
	if lead.AI == "" {
		lead.AI = radar.SuggestionOf(grade, lead.Visit)
	}
	if lead.X == 0 && lead.Y == 0 {
		lead.X, lead.Y = radar.PositionHint(sessionID, index)
	}
}
