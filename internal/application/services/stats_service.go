package services

import (
	"context"
	"fmt"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// statsWindow is how far back engagement events are aggregated.
const statsWindow = 24 * time.Hour

// listingStatsWindow is the wider window used for per-listing view stats.
const listingStatsWindow = 30 * 24 * time.Hour

// TrafficStats is the per-identity aggregation pushed to the ops feed and
// served on the stats endpoint.
type TrafficStats struct {
	Identity         string         `json:"identity"`
	WindowHours      int            `json:"windowHours"`
	TotalEvents      int            `json:"totalEvents"`
	UniqueSessions   int            `json:"uniqueSessions"`
	EventsByVerb     map[string]int `json:"eventsByVerb"`
	GradeCounts      map[string]int `json:"gradeCounts"`
	UnpurchasedCount int            `json:"unpurchasedCount"`
	PurchasedCount   int            `json:"purchasedCount"`
	Points           float64        `json:"points"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}

// StatsService aggregates engagement events and snapshot state into the
// traffic statistics payload.
type StatsService struct {
	sources   map[string]repositories.StatsSource
	snapshots *SnapshotService
	mode      *ModeService
	logger    *logging.ChanneledLogger
}

// NewStatsService creates a new stats service.
func NewStatsService(sources map[string]repositories.StatsSource, snapshots *SnapshotService, mode *ModeService, logger *logging.ChanneledLogger) *StatsService {
	return &StatsService{
		sources:   sources,
		snapshots: snapshots,
		mode:      mode,
		logger:    logger,
	}
}

// Compute builds the stats payload for one identity.
func (s *StatsService) Compute(ctx context.Context, identity string) (*TrafficStats, error) {
	start := time.Now()
	mode := s.mode.Get()

	source, ok := s.sources[mode]
	if !ok {
		return nil, fmt.Errorf("no stats source for mode %q", mode)
	}

	since := time.Now().UTC().Add(-statsWindow)
	events, err := source.FetchEvents(ctx, identity, since)
	if err != nil {
		s.logger.System().Error("Failed to fetch engagement events", "error", err.Error(), "identity", identity, "mode", mode)
		return nil, err
	}

	stats := &TrafficStats{
		Identity:     identity,
		WindowHours:  int(statsWindow.Hours()),
		TotalEvents:  len(events),
		EventsByVerb: make(map[string]int),
		GradeCounts:  make(map[string]int),
		GeneratedAt:  time.Now().UTC(),
	}

	seen := make(map[string]bool)
	for _, event := range events {
		stats.EventsByVerb[event.Verb]++
		if !seen[event.SessionID] {
			seen[event.SessionID] = true
			stats.UniqueSessions++
		}
	}

	snapshot, err := s.snapshots.LoadSnapshot(ctx, identity, false)
	if err != nil {
		// Event aggregation alone is still useful when the snapshot source
		// is down.
		s.logger.System().Warn("Stats computed without snapshot", "error", err.Error(), "identity", identity)
		return stats, nil
	}

	for _, lead := range snapshot.Leads {
		stats.GradeCounts[string(lead.Grade)]++
		if lead.Status == radar.StatusPurchased {
			stats.PurchasedCount++
		} else {
			stats.UnpurchasedCount++
		}
	}
	stats.Points = snapshot.User.Points

	s.logger.System().Debug("Traffic stats computed", "identity", identity, "events", stats.TotalEvents, "sessions", stats.UniqueSessions, "duration", time.Since(start))
	return stats, nil
}

// ListingViewStats is the per-listing engagement aggregation.
type ListingViewStats struct {
	PublicID       string `json:"public_id"`
	Title          string `json:"title"`
	ViewCount      int    `json:"viewCount"`
	UniqueSessions int    `json:"uniqueSessions"`
}

// ListingStats aggregates engagement events per listing. Listings with no
// events in the window are still reported with zero counts.
func (s *StatsService) ListingStats(ctx context.Context, identity string) ([]ListingViewStats, error) {
	mode := s.mode.Get()
	source, ok := s.sources[mode]
	if !ok {
		return nil, fmt.Errorf("no stats source for mode %q", mode)
	}

	since := time.Now().UTC().Add(-listingStatsWindow)
	events, err := source.FetchEvents(ctx, identity, since)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.LoadSnapshot(ctx, identity, false)
	if err != nil {
		return nil, err
	}

	views := make(map[string]int)
	sessions := make(map[string]map[string]bool)
	for _, event := range events {
		if event.PropertyID == "" {
			continue
		}
		views[event.PropertyID]++
		if sessions[event.PropertyID] == nil {
			sessions[event.PropertyID] = make(map[string]bool)
		}
		sessions[event.PropertyID][event.SessionID] = true
	}

	stats := make([]ListingViewStats, 0, len(snapshot.Listings))
	for _, listing := range snapshot.Listings {
		stats = append(stats, ListingViewStats{
			PublicID:       listing.PublicID,
			Title:          listing.Title,
			ViewCount:      views[listing.PublicID],
			UniqueSessions: len(sessions[listing.PublicID]),
		})
	}
	return stats, nil
}
