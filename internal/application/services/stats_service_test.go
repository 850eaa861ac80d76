package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
)

type stubStatsSource struct {
	events []repositories.EventRow
	err    error
}

func (s *stubStatsSource) FetchEvents(ctx context.Context, identity string, since time.Time) ([]repositories.EventRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func newStatsEnv(t *testing.T, source *stubSource, stats *stubStatsSource) *StatsService {
	t.Helper()
	snapshots, mode, _ := newSnapshotEnv(t, source)
	return NewStatsService(map[string]repositories.StatsSource{
		ModeMock: stats,
	}, snapshots, mode, newTestLogger(t))
}

func TestComputeStats(t *testing.T) {
	now := time.Now().UTC()
	statsSource := &stubStatsSource{events: []repositories.EventRow{
		{SessionID: "sess-s", Verb: "PAGEVIEWED", CreatedAt: now},
		{SessionID: "sess-s", Verb: "CLICKED", CreatedAt: now},
		{SessionID: "sess-b", Verb: "PAGEVIEWED", CreatedAt: now},
	}}
	svc := newStatsEnv(t, defaultStubSource(), statsSource)

	stats, err := svc.Compute(context.Background(), "agent-1")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.UniqueSessions)
	assert.Equal(t, 2, stats.EventsByVerb["PAGEVIEWED"])
	assert.Equal(t, 1, stats.GradeCounts["S"])
	assert.Equal(t, 1, stats.GradeCounts["B"])
	assert.Equal(t, 2, stats.UnpurchasedCount)
	assert.Equal(t, 0, stats.PurchasedCount)
	assert.Equal(t, 25.0, stats.Points)
}

func TestComputeStatsWithoutSnapshot(t *testing.T) {
	// An empty snapshot source means the identity is unknown; event
	// aggregation should still succeed.
	statsSource := &stubStatsSource{events: []repositories.EventRow{
		{SessionID: "sess-x", Verb: "PAGEVIEWED", CreatedAt: time.Now().UTC()},
	}}
	svc := newStatsEnv(t, &stubSource{}, statsSource)

	stats, err := svc.Compute(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Empty(t, stats.GradeCounts)
}

func TestListingStats(t *testing.T) {
	now := time.Now().UTC()
	source := defaultStubSource()
	source.listings = []radar.RawListing{
		{PublicID: "prop-1", Title: "Maple Grove Townhouse"},
		{PublicID: "prop-2", Title: "Riverside Loft 2B"},
	}
	statsSource := &stubStatsSource{events: []repositories.EventRow{
		{SessionID: "sess-s", PropertyID: "prop-1", Verb: "PAGEVIEWED", CreatedAt: now},
		{SessionID: "sess-s", PropertyID: "prop-1", Verb: "CLICKED", CreatedAt: now},
		{SessionID: "sess-b", PropertyID: "prop-1", Verb: "PAGEVIEWED", CreatedAt: now},
		{SessionID: "sess-b", PropertyID: "", Verb: "PAGEVIEWED", CreatedAt: now},
	}}
	svc := newStatsEnv(t, source, statsSource)

	stats, err := svc.ListingStats(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byID := map[string]ListingViewStats{}
	for _, s := range stats {
		byID[s.PublicID] = s
	}
	assert.Equal(t, 3, byID["prop-1"].ViewCount)
	assert.Equal(t, 2, byID["prop-1"].UniqueSessions)
	assert.Equal(t, 0, byID["prop-2"].ViewCount, "listing without events still reported")
}

func TestComputeStatsEventFetchFailure(t *testing.T) {
	statsSource := &stubStatsSource{err: errors.New("events table locked")}
	svc := newStatsEnv(t, defaultStubSource(), statsSource)

	_, err := svc.Compute(context.Background(), "agent-1")
	require.Error(t, err)
}
