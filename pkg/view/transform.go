// Package view maps between world space (where node positions and physics
// live) and screen space (pixels). The interaction layer depends on the
// round-trip WorldToScreen(ScreenToWorld(p)) == p holding for every
// zoom/pan state, so zoom is re-clamped after every mutation.
package view

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Default zoom bounds. Pan is intentionally unbounded; world space has no
// edges.
const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 5.0
)

// Transform holds the current zoom factor and pan offset.
// screen = world*zoom + pan.
type Transform struct {
	zoom    float64
	pan     r2.Vec
	minZoom float64
	maxZoom float64
}

// New returns an identity transform with the given zoom bounds. Degenerate
// bounds (non-positive or inverted) fall back to the defaults.
func New(minZoom, maxZoom float64) *Transform {
	if minZoom <= 0 || maxZoom < minZoom {
		minZoom, maxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	t := &Transform{zoom: 1, minZoom: minZoom, maxZoom: maxZoom}
	t.clamp()
	return t
}

// Zoom returns the current zoom factor.
func (t *Transform) Zoom() float64 { return t.zoom }

// Pan returns the current pan offset in screen space.
func (t *Transform) Pan() r2.Vec { return t.pan }

// ScreenToWorld converts a screen point to world coordinates.
func (t *Transform) ScreenToWorld(s r2.Vec) r2.Vec {
	return r2.Scale(1/t.zoom, r2.Sub(s, t.pan))
}

// WorldToScreen converts a world point to screen coordinates.
func (t *Transform) WorldToScreen(w r2.Vec) r2.Vec {
	return r2.Add(r2.Scale(t.zoom, w), t.pan)
}

// ZoomBy multiplies the zoom factor, keeping the world point under the
// given screen anchor fixed. The factor is applied before clamping so
// repeated small steps cannot drift past the bounds.
func (t *Transform) ZoomBy(factor float64, anchor r2.Vec) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	world := t.ScreenToWorld(anchor)
	t.zoom *= factor
	t.clamp()
	t.pan = r2.Sub(anchor, r2.Scale(t.zoom, world))
}

// PanBy shifts the view by a screen-space delta.
func (t *Transform) PanBy(delta r2.Vec) {
	t.pan = r2.Add(t.pan, delta)
}

// Set replaces zoom and pan wholesale, clamping zoom into bounds.
func (t *Transform) Set(zoom float64, pan r2.Vec) {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	t.zoom = zoom
	t.pan = pan
	t.clamp()
}

// Reset restores the identity view.
func (t *Transform) Reset() {
	t.zoom = 1
	t.pan = r2.Vec{}
	t.clamp()
}

// FitToBounds zooms and pans so the world box fills the screen with the
// given margin, centered. A degenerate box (zero extent) centers the view
// on it at the current zoom.
func (t *Transform) FitToBounds(box r2.Box, screenW, screenH, margin float64) {
	w := box.Max.X - box.Min.X
	h := box.Max.Y - box.Min.Y
	center := r2.Scale(0.5, r2.Add(box.Min, box.Max))

	if w > 0 && h > 0 {
		zx := (screenW - 2*margin) / w
		zy := (screenH - 2*margin) / h
		t.zoom = math.Min(zx, zy)
		t.clamp()
	}

	screenCenter := r2.Vec{X: screenW / 2, Y: screenH / 2}
	t.pan = r2.Sub(screenCenter, r2.Scale(t.zoom, center))
}

func (t *Transform) clamp() {
	if t.zoom < t.minZoom {
		t.zoom = t.minZoom
	} else if t.zoom > t.maxZoom {
		t.zoom = t.maxZoom
	}
}
