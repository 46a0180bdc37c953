// Package hull computes convex hulls and smoothed "blob" boundaries for
// drawing a soft region around a group of related nodes.
package hull

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Curve is a closed boundary made of quadratic segments. Start is the
// first on-curve point; each Segment bends toward Control and ends at
// End. The last segment closes back to Start.
type Curve struct {
	Start    r2.Vec
	Segments []Segment
}

// Segment is one quadratic piece of a Curve.
type Segment struct {
	Control r2.Vec
	End     r2.Vec
}

// ComputeHull returns the convex hull of the points in counter-clockwise
// order, starting from the lowest point. Interior points are dropped.
// Fewer than three distinct points come back unchanged (deduplicated).
func ComputeHull(points []r2.Vec) []r2.Vec {
	pts := dedupe(points)
	if len(pts) < 3 {
		return pts
	}

	// Graham scan: anchor at the lowest point (leftmost on ties), sort
	// the rest by polar angle around it, nearer first on equal angles.
	anchor := 0
	for i, p := range pts {
		a := pts[anchor]
		if p.Y < a.Y || (p.Y == a.Y && p.X < a.X) {
			anchor = i
		}
	}
	pts[0], pts[anchor] = pts[anchor], pts[0]
	origin := pts[0]

	rest := pts[1:]
	sort.Slice(rest, func(i, j int) bool {
		turn := r2.Cross(r2.Sub(rest[i], origin), r2.Sub(rest[j], origin))
		if turn != 0 {
			return turn > 0
		}
		return r2.Norm2(r2.Sub(rest[i], origin)) < r2.Norm2(r2.Sub(rest[j], origin))
	})

	stack := pts[:2:2]
	for _, p := range rest[1:] {
		// Pop anything that would make a clockwise (or straight) turn.
		for len(stack) > 1 {
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			if r2.Cross(r2.Sub(b, a), r2.Sub(p, a)) > 0 {
				break
			}
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p)
	}
	return stack
}

// Centroid returns the arithmetic mean of the points, or the zero vector
// for an empty set.
func Centroid(points []r2.Vec) r2.Vec {
	if len(points) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, p := range points {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(points)), sum)
}

// SmoothBlob expands each hull point radially from the centroid by
// padding, then connects consecutive expanded points with quadratic
// segments through their midpoints. The result is a closed rounded
// boundary. Degenerate inputs (fewer than three points) fall back to a
// circle around the point set.
func SmoothBlob(points []r2.Vec, padding float64) Curve {
	hull := ComputeHull(points)
	center := Centroid(hull)
	if len(hull) < 3 {
		return circleBlob(hull, center, padding)
	}

	expanded := make([]r2.Vec, len(hull))
	for i, p := range hull {
		offset := r2.Sub(p, center)
		if n := r2.Norm(offset); n > 0 {
			offset = r2.Scale((n+padding)/n, offset)
		} else {
			offset = r2.Vec{X: padding}
		}
		expanded[i] = r2.Add(center, offset)
	}

	// Midpoints are the on-curve points; the expanded hull points act as
	// controls, which rounds every corner.
	mid := func(i int) r2.Vec {
		next := expanded[(i+1)%len(expanded)]
		return r2.Scale(0.5, r2.Add(expanded[i], next))
	}

	curve := Curve{Start: mid(len(expanded) - 1)}
	for i, p := range expanded {
		curve.Segments = append(curve.Segments, Segment{Control: p, End: mid(i)})
	}
	return curve
}

// circleBlob approximates a circle of radius padding (plus the point
// spread) with eight quadratic segments.
func circleBlob(points []r2.Vec, center r2.Vec, padding float64) Curve {
	radius := padding
	for _, p := range points {
		if d := r2.Norm(r2.Sub(p, center)); d+padding > radius {
			radius = d + padding
		}
	}
	if radius <= 0 {
		radius = 1
	}

	const segments = 8
	step := 2 * math.Pi / segments
	at := func(angle, r float64) r2.Vec {
		return r2.Add(center, r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
	}
	// Control points sit further out so the chord midpoints land on the
	// circle.
	controlR := radius / math.Cos(step/2)

	curve := Curve{Start: at(0, radius)}
	for i := 0; i < segments; i++ {
		mid := float64(i)*step + step/2
		end := float64(i+1) * step
		curve.Segments = append(curve.Segments, Segment{
			Control: at(mid, controlR),
			End:     at(end, radius),
		})
	}
	return curve
}

func dedupe(points []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(points))
	seen := make(map[r2.Vec]bool, len(points))
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
