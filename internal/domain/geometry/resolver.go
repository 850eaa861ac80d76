// Package geometry resolves bubble overlap for the radar layout. The resolver
// is pure and deterministic so layout responses can be cached and replayed.
package geometry

import "math"

// Bubble is a circle positioned by its center in container pixels. Size is
// the diameter.
type Bubble struct {
	X    float64
	Y    float64
	Size float64
}

// Point is a resolved center position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// resolvePasses bounds the repulsion loop. The layout converges well before
// this for realistic bubble counts, and a fixed bound keeps the worst case
// predictable.
const resolvePasses = 6

// Resolve pushes overlapping bubbles apart and clamps every center inside the
// container. Each pass moves both members of an overlapping pair away from
// each other by half the overlap plus padding along the line between their
// centers. Coincident centers are left alone since the push direction is
// undefined; the caller's seeded jitter makes exact coincidence vanishingly
// rare. The boundary clamp runs on every pass for every bubble, so the result
// never leaves the container even when crowding prevents full separation.
func Resolve(bubbles []Bubble, width, height, padding float64) []Point {
	if padding < 0 {
		padding = 0
	}

	out := make([]Point, len(bubbles))
	for i, b := range bubbles {
		out[i] = Point{X: b.X, Y: b.Y}
	}

	for pass := 0; pass < resolvePasses; pass++ {
		for i := range out {
			for j := i + 1; j < len(out); j++ {
				dx := out[j].X - out[i].X
				dy := out[j].Y - out[i].Y
				dist := math.Hypot(dx, dy)
				minDist := (bubbles[i].Size+bubbles[j].Size)/2 + padding

				if dist >= minDist || dist == 0 {
					continue
				}

				push := (minDist - dist) / 2
				nx := dx / dist
				ny := dy / dist

				out[i].X -= nx * push
				out[i].Y -= ny * push
				out[j].X += nx * push
				out[j].Y += ny * push
			}
		}

		for i := range out {
			r := bubbles[i].Size / 2
			out[i].X = clamp(out[i].X, r, width-r)
			out[i].Y = clamp(out[i].Y, r, height-r)
		}
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Bubble wider than the container; pin to the low bound.
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
