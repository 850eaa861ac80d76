package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.OutputToConsole = false
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

func newTestModeService(t *testing.T, cache *manager.Manager, logger *logging.ChanneledLogger) *ModeService {
	t.Helper()
	config.ModeFilePath = filepath.Join(t.TempDir(), "radar-mode.json")
	return NewModeService(cache, nil, logger)
}

// stubSource is an in-memory snapshot source with a fetch counter.
type stubSource struct {
	mu        sync.Mutex
	user      *radar.RawUserRow
	sessions  []radar.RawLead
	purchases []radar.RawLead
	listings  []radar.RawListing
	feed      []radar.RawFeedPost
	fetches   int
}

func (s *stubSource) FetchUser(ctx context.Context, identity string) (*radar.RawUserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *stubSource) FetchSessions(ctx context.Context, identity string, limit int) ([]radar.RawLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]radar.RawLead(nil), s.sessions...), nil
}

func (s *stubSource) FetchPurchases(ctx context.Context, identity string) ([]radar.RawLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]radar.RawLead(nil), s.purchases...), nil
}

func (s *stubSource) FetchListings(ctx context.Context, identity string) ([]radar.RawListing, error) {
	return append([]radar.RawListing(nil), s.listings...), nil
}

func (s *stubSource) FetchFeed(ctx context.Context, identity string, limit int) ([]radar.RawFeedPost, error) {
	return append([]radar.RawFeedPost(nil), s.feed...), nil
}

func (s *stubSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// stubGateway is a scriptable purchase gateway.
type stubGateway struct {
	mu       sync.Mutex
	result   *radar.PurchaseResult
	err      error
	delay    time.Duration
	calls    int
	lastCost float64
}

func (g *stubGateway) PurchaseLead(ctx context.Context, identity, sessionID string, cost float64, grade radar.Grade) (*radar.PurchaseResult, error) {
	g.mu.Lock()
	g.calls++
	g.lastCost = cost
	result, err, delay := g.result, g.err, g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *stubGateway) sentCost() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCost
}
