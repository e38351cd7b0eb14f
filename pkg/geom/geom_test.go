package geom

import (
	"math"
	"strings"
	"testing"
)

func TestNewCurve_ControlPoints(t *testing.T) {
	cases := []struct {
		name       string
		start, end Point
		wantC1     Point
		wantC2     Point
	}{
		{
			name:   "downward",
			start:  Point{X: 0, Y: 0},
			end:    Point{X: 100, Y: 200},
			wantC1: Point{X: 0, Y: 100},
			wantC2: Point{X: 100, Y: 100},
		},
		{
			name:   "upward",
			start:  Point{X: 50, Y: 300},
			end:    Point{X: 50, Y: 100},
			wantC1: Point{X: 50, Y: 400},
			wantC2: Point{X: 50, Y: 0},
		},
		{
			name:   "horizontal",
			start:  Point{X: 0, Y: 100},
			end:    Point{X: 80, Y: 100},
			wantC1: Point{X: 0, Y: 100},
			wantC2: Point{X: 80, Y: 100},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCurve(tc.start, tc.end)
			if c.Control1 != tc.wantC1 {
				t.Errorf("Control1 = %v, want %v", c.Control1, tc.wantC1)
			}
			if c.Control2 != tc.wantC2 {
				t.Errorf("Control2 = %v, want %v", c.Control2, tc.wantC2)
			}
		})
	}
}

func TestCurve_At_Endpoints(t *testing.T) {
	c := NewCurve(Point{X: 10, Y: 20}, Point{X: 90, Y: 220})
	if got := c.At(0); got != c.Start {
		t.Errorf("At(0) = %v, want %v", got, c.Start)
	}
	if got := c.At(1); got != c.End {
		t.Errorf("At(1) = %v, want %v", got, c.End)
	}
	mid := c.At(0.5)
	if mid.Y <= c.Start.Y || mid.Y >= c.End.Y {
		t.Errorf("At(0.5).Y = %v, want strictly between %v and %v", mid.Y, c.Start.Y, c.End.Y)
	}
}

func TestArrowhead_LengthAndAngle(t *testing.T) {
	// Straight vertical drop; wings should be ArrowLength long, ±22.5° off
	// the downward direction.
	c := NewCurve(Point{X: 0, Y: 0}, Point{X: 0, Y: 100})
	segs := c.Arrowhead()
	if len(segs) != 2 {
		t.Fatalf("Arrowhead() returned %d segments, want 2", len(segs))
	}

	for i, seg := range segs {
		if seg.From != c.End {
			t.Errorf("segment %d starts at %v, want curve end %v", i, seg.From, c.End)
		}
		dx := seg.To.X - seg.From.X
		dy := seg.To.Y - seg.From.Y
		length := math.Hypot(dx, dy)
		if math.Abs(length-ArrowLength) > 1e-9 {
			t.Errorf("segment %d length = %v, want %v", i, length, ArrowLength)
		}
		// Both wings point back up (negative dy for a downward arrow).
		if dy >= 0 {
			t.Errorf("segment %d dy = %v, want negative (pointing back)", i, dy)
		}
	}

	// Wings are mirrored around the vertical axis.
	if math.Abs((segs[0].To.X-c.End.X)+(segs[1].To.X-c.End.X)) > 1e-9 {
		t.Errorf("wings not symmetric: %v and %v", segs[0].To, segs[1].To)
	}
}

func TestArrowhead_ZeroLengthCurve(t *testing.T) {
	c := NewCurve(Point{X: 5, Y: 5}, Point{X: 5, Y: 5})
	if segs := c.Arrowhead(); segs != nil {
		t.Errorf("Arrowhead() = %v for zero-length curve, want nil", segs)
	}
	if got := c.ArrowPathData(); got != "" {
		t.Errorf("ArrowPathData() = %q for zero-length curve, want empty", got)
	}
}

func TestPathData(t *testing.T) {
	c := NewCurve(Point{X: 0, Y: 0}, Point{X: 100, Y: 200})
	got := c.PathData()
	if !strings.HasPrefix(got, "M 0.00 0.00 C ") {
		t.Errorf("PathData() = %q, want M/C form", got)
	}
	if !strings.Contains(got, "100.00 200.00") {
		t.Errorf("PathData() = %q, missing end point", got)
	}
}

func TestGridLines(t *testing.T) {
	bounds := Rect{Min: Point{X: 0, Y: 0}, Max: Point{X: 100, Y: 50}}
	lines := GridLines(bounds, 50)

	// x = 0, 50, 100 vertical; y = 0, 50 horizontal.
	if len(lines) != 5 {
		t.Fatalf("GridLines() returned %d lines, want 5", len(lines))
	}
	vertical := 0
	for _, l := range lines {
		if l.From.X == l.To.X {
			vertical++
		}
	}
	if vertical != 3 {
		t.Errorf("got %d vertical lines, want 3", vertical)
	}
}

func TestGridLines_NonPositiveSpacing(t *testing.T) {
	bounds := Rect{Max: Point{X: 100, Y: 100}}
	if lines := GridLines(bounds, 0); lines != nil {
		t.Errorf("GridLines(spacing=0) = %d lines, want nil", len(lines))
	}
	if lines := GridLines(bounds, -10); lines != nil {
		t.Errorf("GridLines(spacing=-10) = %d lines, want nil", len(lines))
	}
}

func TestPoint_Arithmetic(t *testing.T) {
	p := Point{X: 3, Y: 4}
	if got := p.Add(Point{X: 1, Y: -1}); got != (Point{X: 4, Y: 3}) {
		t.Errorf("Add = %v", got)
	}
	if got := p.Sub(Point{X: 1, Y: 1}); got != (Point{X: 2, Y: 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := p.Scale(2); got != (Point{X: 6, Y: 8}) {
		t.Errorf("Scale = %v", got)
	}
}
