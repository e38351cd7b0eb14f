package canvas

import (
	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// ConnectorKind distinguishes the two edge families on the canvas.
type ConnectorKind int

const (
	// ConnectorParent is a directed parent→child connector.
	ConnectorParent ConnectorKind = iota
	// ConnectorPartner is an undirected partner connector.
	ConnectorPartner
)

// Connector is one curve of the connector layer.
type Connector struct {
	Kind       ConnectorKind
	Curve      geom.Curve
	Generation int // child (or right member) generation, used for stroke color
}

// NodeGlyph is one node of the node layer, fully resolved for drawing.
type NodeGlyph struct {
	ID       string
	Name     string
	Position geom.Point // canvas space, including any live drag offset
	Color    string     // fill from the generation palette
	Source   bool       // highlighted as the pending link source
}

// Scene is the composed, render-ready view of the canvas: grid below
// connectors below nodes, all sharing one viewport transform. Renderers
// (SVG export, the TUI) draw the layers in order without consulting the
// tree again.
type Scene struct {
	Grid       []geom.Segment
	Connectors []Connector
	Nodes      []NodeGlyph
	Scale      float64
	Offset     geom.Point
}

// ColorFunc resolves a generation to a fill color. The palette is an
// external collaborator; the canvas only reads it per draw.
type ColorFunc func(generation int) string

// Compose builds the scene for the current tree and viewport state.
//
// bounds is the unscaled region to cover with grid lines. The drag
// controller may be nil for headless rendering; when present, the dragged
// node is shown at base position plus the live drag offset.
//
// Partner connectors are emitted once per pair: from the member with the
// smaller x to the other, with the pair's IDs as tie-break when x is equal.
func Compose(t *tree.Tree, vp *Viewport, colors ColorFunc, bounds geom.Rect, ctl *Controller) Scene {
	scene := Scene{
		Grid:   geom.GridLines(bounds, geom.GridSpacing),
		Scale:  vp.Scale(),
		Offset: vp.Offset(),
	}

	pos := func(p *tree.Person) geom.Point {
		if ctl == nil {
			return p.Position
		}
		return p.Position.Add(ctl.DragOffset(p.ID, vp.Scale()))
	}

	people := t.People()
	for _, person := range people {
		for _, parent := range t.Parents(person.ID) {
			scene.Connectors = append(scene.Connectors, Connector{
				Kind:       ConnectorParent,
				Curve:      geom.NewCurve(pos(parent), pos(person)),
				Generation: person.Generation,
			})
		}
		for _, partner := range t.Partners(person.ID) {
			if !drawsPartnerEdge(person, partner) {
				continue
			}
			scene.Connectors = append(scene.Connectors, Connector{
				Kind:       ConnectorPartner,
				Curve:      geom.NewCurve(pos(person), pos(partner)),
				Generation: partner.Generation,
			})
		}
	}

	for _, person := range people {
		glyph := NodeGlyph{
			ID:       person.ID,
			Name:     person.DisplayName(),
			Position: pos(person),
		}
		if colors != nil {
			glyph.Color = colors(person.Generation)
		}
		if ctl != nil && ctl.SourceID() == person.ID {
			glyph.Source = true
		}
		scene.Nodes = append(scene.Nodes, glyph)
	}

	return scene
}

// Bounds returns the canvas region covering every node position plus a
// margin on all sides. An empty tree gets a fixed default region so the
// grid never collapses to nothing.
func Bounds(t *tree.Tree, margin float64) geom.Rect {
	bounds := geom.Rect{Max: geom.Point{X: 1200, Y: 800}}
	for _, p := range t.People() {
		if p.Position.X+margin > bounds.Max.X {
			bounds.Max.X = p.Position.X + margin
		}
		if p.Position.Y+margin > bounds.Max.Y {
			bounds.Max.Y = p.Position.Y + margin
		}
		if p.Position.X-margin < bounds.Min.X {
			bounds.Min.X = p.Position.X - margin
		}
		if p.Position.Y-margin < bounds.Min.Y {
			bounds.Min.Y = p.Position.Y - margin
		}
	}
	return bounds
}

// drawsPartnerEdge reports whether the a→b direction of a partner pair is
// the one that gets drawn. The left member draws; equal x falls back to ID
// order so each pair is drawn exactly once.
func drawsPartnerEdge(a, b *tree.Person) bool {
	if a.Position.X != b.Position.X {
		return a.Position.X < b.Position.X
	}
	return a.ID < b.ID
}
