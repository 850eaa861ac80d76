package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSeparatesOverlappingPair(t *testing.T) {
	bubbles := []Bubble{
		{X: 100, Y: 100, Size: 80},
		{X: 110, Y: 100, Size: 80},
	}

	pts := Resolve(bubbles, 600, 400, 5)
	require.Len(t, pts, 2)

	dist := math.Hypot(pts[1].X-pts[0].X, pts[1].Y-pts[0].Y)
	assert.GreaterOrEqual(t, dist, 80.0+5.0-0.001, "pair should be pushed at least a diameter plus padding apart")
}

func TestResolveLeavesSeparatedBubblesAlone(t *testing.T) {
	bubbles := []Bubble{
		{X: 100, Y: 100, Size: 60},
		{X: 400, Y: 300, Size: 60},
	}

	pts := Resolve(bubbles, 600, 400, 5)

	assert.Equal(t, 100.0, pts[0].X)
	assert.Equal(t, 100.0, pts[0].Y)
	assert.Equal(t, 400.0, pts[1].X)
	assert.Equal(t, 300.0, pts[1].Y)
}

func TestResolveSkipsCoincidentCenters(t *testing.T) {
	bubbles := []Bubble{
		{X: 200, Y: 200, Size: 80},
		{X: 200, Y: 200, Size: 80},
	}

	pts := Resolve(bubbles, 600, 400, 5)

	// Undefined push direction; both stay where they are.
	assert.Equal(t, pts[0], pts[1])
	assert.Equal(t, 200.0, pts[0].X)
}

func TestResolveClampsToContainer(t *testing.T) {
	bubbles := []Bubble{
		{X: -50, Y: 1000, Size: 100},
		{X: 590, Y: 10, Size: 100},
	}

	pts := Resolve(bubbles, 600, 400, 5)

	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, 50.0)
		assert.LessOrEqual(t, p.X, 550.0)
		assert.GreaterOrEqual(t, p.Y, 50.0)
		assert.LessOrEqual(t, p.Y, 350.0)
	}
}

func TestResolveCrowdedStaysInBounds(t *testing.T) {
	// More bubbles than the container can fully separate; every center must
	// still land inside.
	var bubbles []Bubble
	for i := 0; i < 20; i++ {
		bubbles = append(bubbles, Bubble{
			X:    150 + float64(i%3),
			Y:    150 + float64(i%5),
			Size: 120,
		})
	}

	pts := Resolve(bubbles, 400, 400, 10)
	require.Len(t, pts, 20)

	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, 60.0)
		assert.LessOrEqual(t, p.X, 340.0)
		assert.GreaterOrEqual(t, p.Y, 60.0)
		assert.LessOrEqual(t, p.Y, 340.0)
	}
}

func TestResolveNegativePaddingTreatedAsZero(t *testing.T) {
	bubbles := []Bubble{
		{X: 100, Y: 100, Size: 80},
		{X: 120, Y: 100, Size: 80},
	}

	pts := Resolve(bubbles, 600, 400, -10)

	dist := math.Hypot(pts[1].X-pts[0].X, pts[1].Y-pts[0].Y)
	assert.GreaterOrEqual(t, dist, 80.0-0.001)
}

func TestResolveDeterministic(t *testing.T) {
	bubbles := []Bubble{
		{X: 100, Y: 100, Size: 90},
		{X: 130, Y: 110, Size: 80},
		{X: 120, Y: 90, Size: 60},
	}

	a := Resolve(bubbles, 600, 400, 5)
	b := Resolve(bubbles, 600, 400, 5)
	assert.Equal(t, a, b)
}

func TestResolveEmpty(t *testing.T) {
	pts := Resolve(nil, 600, 400, 5)
	assert.Empty(t, pts)
}
