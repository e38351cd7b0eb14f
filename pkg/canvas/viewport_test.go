package canvas

import (
	"math"
	"testing"

	"github.com/bitdegree/heirloom/pkg/geom"
)

func TestViewport_Defaults(t *testing.T) {
	vp := NewViewport()
	if vp.Scale() != 1 {
		t.Errorf("Scale() = %v, want 1", vp.Scale())
	}
	if vp.Offset() != (geom.Point{}) {
		t.Errorf("Offset() = %v, want zero", vp.Offset())
	}
}

func TestViewport_ZoomGesture(t *testing.T) {
	// Samples within one gesture are cumulative magnifications; the scale
	// multiplies by the ratio to the previous sample.
	vp := NewViewport()
	vp.UpdateZoom(1.5)
	if vp.Scale() != 1.5 {
		t.Errorf("Scale() = %v after first sample, want 1.5", vp.Scale())
	}
	vp.UpdateZoom(3.0)
	if math.Abs(vp.Scale()-3.0) > 1e-9 {
		t.Errorf("Scale() = %v after second sample, want 3.0", vp.Scale())
	}
	vp.EndZoom()

	// A fresh gesture starts from the neutral baseline, not the last sample.
	vp.UpdateZoom(2.0)
	if math.Abs(vp.Scale()-6.0) > 1e-9 {
		t.Errorf("Scale() = %v after new gesture, want 6.0", vp.Scale())
	}
}

func TestViewport_ZoomClampedAtMinScale(t *testing.T) {
	vp := NewViewport()
	vp.UpdateZoom(0.01)
	if vp.Scale() != MinScale {
		t.Errorf("Scale() = %v, want clamped to %v", vp.Scale(), MinScale)
	}
}

func TestViewport_ZoomIgnoresNonPositive(t *testing.T) {
	vp := NewViewport()
	vp.UpdateZoom(0)
	vp.UpdateZoom(-2)
	if vp.Scale() != 1 {
		t.Errorf("Scale() = %v after invalid samples, want 1", vp.Scale())
	}
}

func TestViewport_PanGesture(t *testing.T) {
	vp := NewViewport()
	vp.UpdatePan(geom.Point{X: 10, Y: 5})
	vp.UpdatePan(geom.Point{X: 30, Y: 15})
	if vp.Offset() != (geom.Point{X: 30, Y: 15}) {
		t.Errorf("Offset() = %v, want {30 15} (cumulative, not additive)", vp.Offset())
	}
	vp.EndPan()

	// The next gesture composes on top of the committed offset.
	vp.UpdatePan(geom.Point{X: -10, Y: 0})
	if vp.Offset() != (geom.Point{X: 20, Y: 15}) {
		t.Errorf("Offset() = %v after second gesture, want {20 15}", vp.Offset())
	}
}

func TestViewport_SimultaneousPanAndZoom(t *testing.T) {
	vp := NewViewport()
	vp.UpdateZoom(2)
	vp.UpdatePan(geom.Point{X: 40, Y: 0})
	if vp.Scale() != 2 {
		t.Errorf("Scale() = %v, want 2", vp.Scale())
	}
	if vp.Offset() != (geom.Point{X: 40, Y: 0}) {
		t.Errorf("Offset() = %v, want {40 0}", vp.Offset())
	}
}

func TestViewport_Reset(t *testing.T) {
	vp := NewViewport()
	vp.UpdateZoom(2)
	vp.EndZoom()
	vp.UpdatePan(geom.Point{X: 50, Y: 50})
	vp.EndPan()

	vp.Reset()

	if vp.Scale() != 1 || vp.Offset() != (geom.Point{}) {
		t.Errorf("after Reset: scale = %v, offset = %v", vp.Scale(), vp.Offset())
	}
	// Gesture baselines are cleared too.
	vp.UpdatePan(geom.Point{X: 5, Y: 5})
	if vp.Offset() != (geom.Point{X: 5, Y: 5}) {
		t.Errorf("Offset() = %v after reset + pan, want {5 5}", vp.Offset())
	}
}

func TestViewport_ProjectUnproject(t *testing.T) {
	vp := NewViewport()
	vp.UpdateZoom(2)
	vp.UpdatePan(geom.Point{X: 100, Y: -40})

	p := geom.Point{X: 30, Y: 70}
	screen := vp.Project(p)
	if screen != (geom.Point{X: 160, Y: 100}) {
		t.Errorf("Project(%v) = %v, want {160 100}", p, screen)
	}
	back := vp.Unproject(screen)
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("Unproject(Project(%v)) = %v", p, back)
	}
}
