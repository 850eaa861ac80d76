package services

import (
	"context"
	"fmt"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/geometry"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/manager"
	"github.com/maihouses/leadradar-go/internal/infrastructure/caching/types"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
)

// narrowBreakpoint is the container width below which the compact size
// profile applies.
const narrowBreakpoint = 768

// bubblePadding is the minimum gap kept between resolved bubbles.
const bubblePadding = 8

// minBubbleSize is the floor after profile scaling.
const minBubbleSize = 40

var wideSizes = map[radar.Grade]float64{
	radar.GradeS: 120,
	radar.GradeA: 100,
	radar.GradeB: 90,
	radar.GradeC: 80,
	radar.GradeF: 60,
}

var narrowSizes = map[radar.Grade]float64{
	radar.GradeS: 84,
	radar.GradeA: 72,
	radar.GradeB: 64,
	radar.GradeC: 56,
	radar.GradeF: 44,
}

// LeadPosition is one resolved bubble sent to the client.
type LeadPosition struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// LayoutResponse is the resolved layout for one container.
type LayoutResponse struct {
	Profile   string         `json:"profile"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Positions []LeadPosition `json:"positions"`
}

// LayoutService turns a snapshot's percentage position hints into resolved,
// non-overlapping pixel positions for a concrete container.
type LayoutService struct {
	snapshots *SnapshotService
	cache     *manager.Manager
	logger    *logging.ChanneledLogger
}

// NewLayoutService creates a new layout service.
func NewLayoutService(snapshots *SnapshotService, cache *manager.Manager, logger *logging.ChanneledLogger) *LayoutService {
	return &LayoutService{
		snapshots: snapshots,
		cache:     cache,
		logger:    logger,
	}
}

// ComputeLayout resolves bubble positions for the identity's current leads
// inside a width x height container.
func (s *LayoutService) ComputeLayout(ctx context.Context, identity string, width, height float64) (*LayoutResponse, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("container dimensions must be positive, got %gx%g", width, height)
	}

	profile := "wide"
	sizes := wideSizes
	if width < narrowBreakpoint {
		profile = "narrow"
		sizes = narrowSizes
	}

	mode := s.snapshots.Mode()
	key := fmt.Sprintf("%s:%s:%gx%g", mode, profile, width, height)
	if entry, ok := s.cache.GetLayout(identity, key); ok {
		return layoutResponse(profile, width, height, entry), nil
	}

	start := time.Now()
	snapshot, err := s.snapshots.LoadSnapshot(ctx, identity, false)
	if err != nil {
		return nil, err
	}

	bubbles := make([]geometry.Bubble, 0, len(snapshot.Leads))
	leadIDs := make([]string, 0, len(snapshot.Leads))
	for _, lead := range snapshot.Leads {
		size := sizes[lead.Grade]
		if size == 0 {
			size = sizes[radar.GradeF]
		}
		if size < minBubbleSize {
			size = minBubbleSize
		}
		bubbles = append(bubbles, geometry.Bubble{
			X:    lead.X / 100 * width,
			Y:    lead.Y / 100 * height,
			Size: size,
		})
		leadIDs = append(leadIDs, lead.ID)
	}

	points := geometry.Resolve(bubbles, width, height, bubblePadding)

	bubbleSizes := make([]float64, len(bubbles))
	for i, b := range bubbles {
		bubbleSizes[i] = b.Size
	}
	entry := &types.LayoutEntry{
		Positions:  points,
		LeadIDs:    leadIDs,
		Sizes:      bubbleSizes,
		ComputedAt: time.Now().UTC(),
	}
	s.cache.SetLayout(identity, key, entry)

	s.logger.Snapshot().Debug("Layout resolved", "identity", identity, "profile", profile, "bubbles", len(bubbles), "duration", time.Since(start))

	return layoutResponse(profile, width, height, entry), nil
}

func layoutResponse(profile string, width, height float64, entry *types.LayoutEntry) *LayoutResponse {
	positions := make([]LeadPosition, len(entry.Positions))
	for i, p := range entry.Positions {
		positions[i] = LeadPosition{
			ID:   entry.LeadIDs[i],
			X:    p.X,
			Y:    p.Y,
			Size: entry.Sizes[i],
		}
	}
	return &LayoutResponse{
		Profile:   profile,
		Width:     width,
		Height:    height,
		Positions: positions,
	}
}
