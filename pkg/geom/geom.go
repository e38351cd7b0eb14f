// Package geom provides the connector and grid geometry used by the canvas.
//
// All functions are pure: they map points to curves and line segments without
// touching any graph state. Coordinates are in canvas units (unscaled).
package geom

import (
	"fmt"
	"math"
	"strings"
)

// ArrowLength is the length of each arrowhead segment in canvas units.
const ArrowLength = 15.0

// arrowAngle is the angular offset of each arrowhead segment from the
// start→end line (π/8 = 22.5°).
const arrowAngle = math.Pi / 8

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the point translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns the point translated by -d.
func (p Point) Sub(d Point) Point { return Point{X: p.X - d.X, Y: p.Y - d.Y} }

// Scale returns the point with both coordinates multiplied by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Segment is a straight line between two points.
type Segment struct {
	From Point
	To   Point
}

// Curve is a cubic Bézier from Start to End with two control points.
// Connectors read top-to-bottom: Start is the parent, End is the child.
type Curve struct {
	Start    Point
	Control1 Point
	Control2 Point
	End      Point
}

// NewCurve builds the S-curve connecting start to end. The control points
// are offset from the endpoints along the vertical axis by half the vertical
// distance between them, so the curve leaves the parent downward and enters
// the child from above regardless of horizontal offset.
//
// When start == end the curve collapses to a point.
func NewCurve(start, end Point) Curve {
	dy := math.Abs(end.Y-start.Y) * 0.5
	return Curve{
		Start:    start,
		Control1: Point{X: start.X, Y: start.Y + dy},
		Control2: Point{X: end.X, Y: end.Y - dy},
		End:      end,
	}
}

// At evaluates the curve at parameter t in [0, 1] using the cubic Bézier
// polynomial. Renderers without native curve support sample this to draw
// connectors as point runs.
func (c Curve) At(t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*c.Start.X + b1*c.Control1.X + b2*c.Control2.X + b3*c.End.X,
		Y: b0*c.Start.Y + b1*c.Control1.Y + b2*c.Control2.Y + b3*c.End.Y,
	}
}

// Arrowhead returns the two segments of a directional arrowhead at the
// curve's end, each ArrowLength long and rotated ±22.5° back from the
// start→end direction.
//
// For a zero-length curve there is no direction to point along, so no
// segments are returned rather than computing an angle from (0, 0).
func (c Curve) Arrowhead() []Segment {
	dx := c.End.X - c.Start.X
	dy := c.End.Y - c.Start.Y
	if dx == 0 && dy == 0 {
		return nil
	}

	angle := math.Atan2(dy, dx)
	wing := func(offset float64) Segment {
		return Segment{
			From: c.End,
			To: Point{
				X: c.End.X - ArrowLength*math.Cos(angle+offset),
				Y: c.End.Y - ArrowLength*math.Sin(angle+offset),
			},
		}
	}
	return []Segment{wing(-arrowAngle), wing(arrowAngle)}
}

// PathData renders the curve as an SVG path data string ("M ... C ...").
func (c Curve) PathData() string {
	return fmt.Sprintf("M %s C %s, %s, %s",
		fmtPoint(c.Start), fmtPoint(c.Control1), fmtPoint(c.Control2), fmtPoint(c.End))
}

// ArrowPathData renders the arrowhead segments as SVG path data.
// Returns an empty string for a zero-length curve.
func (c Curve) ArrowPathData() string {
	segs := c.Arrowhead()
	if len(segs) == 0 {
		return ""
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = fmt.Sprintf("M %s L %s", fmtPoint(s.From), fmtPoint(s.To))
	}
	return strings.Join(parts, " ")
}

func fmtPoint(p Point) string {
	return fmt.Sprintf("%.2f %.2f", p.X, p.Y)
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Point
	Max Point
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// GridSpacing is the distance between background grid lines.
const GridSpacing = 50.0

// GridLines returns the vertical and horizontal lines of a repeating grid
// covering bounds at the given spacing. A non-positive spacing yields no
// lines instead of looping forever.
func GridLines(bounds Rect, spacing float64) []Segment {
	if spacing <= 0 {
		return nil
	}

	var lines []Segment
	for x := bounds.Min.X; x <= bounds.Max.X; x += spacing {
		lines = append(lines, Segment{
			From: Point{X: x, Y: bounds.Min.Y},
			To:   Point{X: x, Y: bounds.Max.Y},
		})
	}
	for y := bounds.Min.Y; y <= bounds.Max.Y; y += spacing {
		lines = append(lines, Segment{
			From: Point{X: bounds.Min.X, Y: y},
			To:   Point{X: bounds.Max.X, Y: y},
		})
	}
	return lines
}
