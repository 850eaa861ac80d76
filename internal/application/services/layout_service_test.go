package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLayoutEnv(t *testing.T, source *stubSource) *LayoutService {
	t.Helper()
	snapshots, _, cache := newSnapshotEnv(t, source)
	return NewLayoutService(snapshots, cache, newTestLogger(t))
}

func TestComputeLayoutWideProfile(t *testing.T) {
	svc := newLayoutEnv(t, defaultStubSource())

	layout, err := svc.ComputeLayout(context.Background(), "agent-1", 1024, 768)
	require.NoError(t, err)
	assert.Equal(t, "wide", layout.Profile)
	require.Len(t, layout.Positions, 2)

	for _, p := range layout.Positions {
		switch p.ID {
		case "sess-s":
			assert.Equal(t, 120.0, p.Size)
		case "sess-b":
			assert.Equal(t, 90.0, p.Size)
		}
	}
}

func TestComputeLayoutNarrowProfile(t *testing.T) {
	svc := newLayoutEnv(t, defaultStubSource())

	layout, err := svc.ComputeLayout(context.Background(), "agent-1", 400, 700)
	require.NoError(t, err)
	assert.Equal(t, "narrow", layout.Profile)

	for _, p := range layout.Positions {
		if p.ID == "sess-s" {
			assert.Equal(t, 84.0, p.Size)
		}
	}
}

func TestComputeLayoutKeepsBubblesInBounds(t *testing.T) {
	svc := newLayoutEnv(t, defaultStubSource())

	width, height := 800.0, 600.0
	layout, err := svc.ComputeLayout(context.Background(), "agent-1", width, height)
	require.NoError(t, err)

	for _, p := range layout.Positions {
		r := p.Size / 2
		assert.GreaterOrEqual(t, p.X, r)
		assert.LessOrEqual(t, p.X, width-r)
		assert.GreaterOrEqual(t, p.Y, r)
		assert.LessOrEqual(t, p.Y, height-r)
	}
}

func TestComputeLayoutRejectsInvalidDimensions(t *testing.T) {
	svc := newLayoutEnv(t, defaultStubSource())

	_, err := svc.ComputeLayout(context.Background(), "agent-1", 0, 600)
	require.Error(t, err)
	_, err = svc.ComputeLayout(context.Background(), "agent-1", 800, -1)
	require.Error(t, err)
}

func TestComputeLayoutServedFromCache(t *testing.T) {
	source := defaultStubSource()
	svc := newLayoutEnv(t, source)

	first, err := svc.ComputeLayout(context.Background(), "agent-1", 1024, 768)
	require.NoError(t, err)
	second, err := svc.ComputeLayout(context.Background(), "agent-1", 1024, 768)
	require.NoError(t, err)

	assert.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, 1, source.fetchCount())
}
