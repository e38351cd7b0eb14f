package render

import (
	"strings"
	"testing"

	"github.com/bitdegree/heirloom/pkg/canvas"
	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/tree"
)

func renderTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	people := []*tree.Person{
		{ID: "ada", Name: "Ada", Generation: 0, Position: geom.Point{X: 0, Y: 0}},
		{ID: "edwin", Name: "Edwin", Generation: 0, Position: geom.Point{X: 200, Y: 0}},
		{ID: "meg", Name: "Margaret", Generation: 1, Position: geom.Point{X: 100, Y: 180}},
	}
	for _, p := range people {
		if err := tr.Add(p); err != nil {
			t.Fatalf("Add(%s) = %v", p.ID, err)
		}
	}
	if err := tr.Partner("ada", "edwin"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}
	if err := tr.Link("ada", "meg"); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	return tr
}

func TestSceneSVG(t *testing.T) {
	tr := renderTree(t)
	vp := canvas.NewViewport()
	vp.UpdateZoom(2)
	vp.UpdatePan(geom.Point{X: 50, Y: 10})
	scene := canvas.Compose(tr, vp, nil, canvas.Bounds(tr, 200), nil)

	svg := string(SceneSVG(scene, SVGOptions{}))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("output does not start with an svg element: %.80s", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0 1200 800"`) {
		t.Error("default dimensions missing from viewBox")
	}
	// The viewport transform is baked into one group.
	if !strings.Contains(svg, `transform="translate(50.00 10.00) scale(2.0000)"`) {
		t.Error("viewport transform missing")
	}
	// Parent connectors are dashed, with an arrowhead path.
	if !strings.Contains(svg, `stroke-dasharray="5 5"`) {
		t.Error("no dashed parent connector")
	}
	if strings.Count(svg, `<circle`) != 3 {
		t.Errorf("circle count = %d, want 3", strings.Count(svg, `<circle`))
	}
	for _, name := range []string{"Ada", "Edwin", "Margaret"} {
		if !strings.Contains(svg, ">"+name+"<") {
			t.Errorf("label %q missing", name)
		}
	}
}

func TestSceneSVG_EscapesNames(t *testing.T) {
	tr := tree.New()
	if err := tr.Add(&tree.Person{ID: "x", Name: `O'Brien <jr> & co`}); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	scene := canvas.Compose(tr, canvas.NewViewport(), nil, geom.Rect{}, nil)

	svg := string(SceneSVG(scene, SVGOptions{}))

	if strings.Contains(svg, "<jr>") {
		t.Error("name not escaped")
	}
	if !strings.Contains(svg, "&lt;jr&gt;") {
		t.Error("escaped name missing")
	}
}

func TestSceneSVG_SourceHighlight(t *testing.T) {
	scene := canvas.Scene{
		Nodes: []canvas.NodeGlyph{{ID: "a", Name: "Ada", Source: true, Color: "#334DCC"}},
		Scale: 1,
	}
	svg := string(SceneSVG(scene, SVGOptions{}))
	if !strings.Contains(svg, `stroke="#1A9966"`) {
		t.Error("link source not drawn with the highlight color")
	}
}

func TestToDOT(t *testing.T) {
	tr := renderTree(t)
	dot := ToDOT(tr, DOTOptions{})

	if !strings.HasPrefix(dot, "digraph family {") {
		t.Errorf("ToDOT() = %.40s, want digraph header", dot)
	}
	if !strings.Contains(dot, `"ada" -> "meg";`) {
		t.Error("parent edge missing")
	}
	// The partner edge appears exactly once, undirected and dashed.
	partner := `"ada" -> "edwin" [dir=none, style=dashed, constraint=false];`
	if strings.Count(dot, partner) != 1 {
		t.Errorf("partner edge count = %d, want 1", strings.Count(dot, partner))
	}
	if strings.Contains(dot, `"edwin" -> "ada"`) {
		t.Error("partner edge duplicated in reverse direction")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	tr := renderTree(t)
	dot := ToDOT(tr, DOTOptions{
		Detailed: true,
		Colors:   func(gen int) string { return "#334DCC" },
	})

	if !strings.Contains(dot, `gen 1`) {
		t.Error("detailed labels missing generation numbers")
	}
	if !strings.Contains(dot, `fillcolor="#334DCC"`) {
		t.Error("generation colors not applied")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="2in" height="1in" viewBox="0.00 0.00 144.00 72.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 144.00 72.00"`) {
		t.Errorf("normalizeViewBox() = %q, want zero-origin viewBox", out)
	}
	if !strings.Contains(out, `width="144" height="72"`) {
		t.Errorf("normalizeViewBox() = %q, want pixel dimensions", out)
	}
}

func TestNormalizeViewBox_NoViewBox(t *testing.T) {
	in := []byte(`<svg><g/></svg>`)
	if got := string(normalizeViewBox(in)); got != string(in) {
		t.Errorf("normalizeViewBox() = %q, want input unchanged", got)
	}
}
