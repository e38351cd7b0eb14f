// Package canvas provides the interactive-canvas engine: the viewport
// transform (pan/zoom), the per-node interaction state machine (drag,
// select, connect mode), and scene composition for rendering.
//
// The engine assumes a single logical thread of interactive control: all
// gesture handling and state transitions happen on the caller's event loop.
// Persistence writes are fire-and-forget; failures are logged at this
// boundary and never surfaced to the user, so the canvas stays interactive.
package canvas

import "github.com/bitdegree/heirloom/pkg/geom"

// MinScale is the smallest zoom factor the viewport accepts. Clamping keeps
// the transform invertible; a zero or negative scale would degenerate the
// render and break drag math, which divides by scale.
const MinScale = 0.1

// Viewport owns the zoom scale and pan offset shared by every canvas layer.
//
// Gesture deltas arrive as absolute values per gesture (the current
// magnification, the current translation), so the viewport keeps the last
// committed value of each and composes deltas incrementally. Pan and zoom
// gestures may run at the same time.
type Viewport struct {
	scale  float64
	offset geom.Point

	lastScale  float64 // last magnification sample within the active gesture
	lastOffset geom.Point
}

// NewViewport creates a viewport at scale 1 with no offset.
func NewViewport() *Viewport {
	return &Viewport{scale: 1, lastScale: 1}
}

// Scale returns the current zoom factor.
func (v *Viewport) Scale() float64 { return v.scale }

// Offset returns the current pan offset.
func (v *Viewport) Offset() geom.Point { return v.offset }

// UpdateZoom applies one sample of a magnification gesture. The sample is
// the gesture's cumulative magnification, so the scale multiplies by the
// ratio to the previous sample. The result is clamped to MinScale.
func (v *Viewport) UpdateZoom(magnification float64) {
	if magnification <= 0 {
		return
	}
	v.scale *= magnification / v.lastScale
	v.lastScale = magnification
	if v.scale < MinScale {
		v.scale = MinScale
	}
}

// EndZoom finishes a magnification gesture, resetting the delta baseline to
// the neutral multiplier so the next gesture starts clean.
func (v *Viewport) EndZoom() { v.lastScale = 1 }

// UpdatePan applies one sample of a pan gesture. The sample is the
// gesture's cumulative translation from its start point.
func (v *Viewport) UpdatePan(translation geom.Point) {
	v.offset = v.lastOffset.Add(translation)
}

// EndPan finishes a pan gesture, committing the current offset as the base
// for the next gesture.
func (v *Viewport) EndPan() { v.lastOffset = v.offset }

// Reset restores scale 1 and zero offset, clearing both gesture baselines.
// The caller animates the transition if desired.
func (v *Viewport) Reset() {
	v.scale = 1
	v.offset = geom.Point{}
	v.lastScale = 1
	v.lastOffset = geom.Point{}
}

// Project maps a canvas-space point to screen space under the current
// transform. All layers use the same mapping so the grid and the
// node/connector layers stay aligned at every zoom level.
func (v *Viewport) Project(p geom.Point) geom.Point {
	return p.Scale(v.scale).Add(v.offset)
}

// Unproject maps a screen-space point back to canvas space.
func (v *Viewport) Unproject(p geom.Point) geom.Point {
	return p.Sub(v.offset).Scale(1 / v.scale)
}
