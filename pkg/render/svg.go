// Package render turns composed canvas scenes and trees into output
// formats: SVG (the headless equivalent of the canvas draw), Graphviz
// node-link diagrams, and PDF/PNG conversions of either.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/bitdegree/heirloom/pkg/canvas"
	"github.com/bitdegree/heirloom/pkg/geom"
)

// Node glyph dimensions in canvas units, matching the interactive canvas.
const (
	nodeRadius   = 40.0
	nameFontSize = 12.0
)

// SVGOptions configures scene export.
type SVGOptions struct {
	Width  float64 // Output width in pixels; defaults to 1200
	Height float64 // Output height in pixels; defaults to 800
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	return o
}

// SceneSVG renders a composed scene to SVG. Layers are drawn bottom to top
// (grid, connectors, nodes) inside a single transform group, so everything
// stays aligned exactly as on the interactive canvas.
func SceneSVG(scene canvas.Scene, opts SVGOptions) []byte {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(&buf, `<g transform="translate(%.2f %.2f) scale(%.4f)">`+"\n",
		scene.Offset.X, scene.Offset.Y, scene.Scale)

	writeGrid(&buf, scene.Grid)
	writeConnectors(&buf, scene)
	writeNodes(&buf, scene)

	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes()
}

func writeGrid(buf *bytes.Buffer, lines []geom.Segment) {
	if len(lines) == 0 {
		return
	}
	buf.WriteString(`<g stroke="#808080" stroke-opacity="0.15" stroke-width="1">` + "\n")
	for _, l := range lines {
		fmt.Fprintf(buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
			l.From.X, l.From.Y, l.To.X, l.To.Y)
	}
	buf.WriteString("</g>\n")
}

func writeConnectors(buf *bytes.Buffer, scene canvas.Scene) {
	for _, c := range scene.Connectors {
		stroke := "#999999"
		dash := ` stroke-dasharray="5 5"`
		if c.Kind == canvas.ConnectorPartner {
			dash = "" // partner edges are solid to read as a different family
		}
		fmt.Fprintf(buf, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linecap="round"%s/>`+"\n",
			c.Curve.PathData(), stroke, dash)
		if c.Kind == canvas.ConnectorParent {
			if arrow := c.Curve.ArrowPathData(); arrow != "" {
				fmt.Fprintf(buf, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n", arrow, stroke)
			}
		}
	}
}

func writeNodes(buf *bytes.Buffer, scene canvas.Scene) {
	for _, n := range scene.Nodes {
		fill := n.Color
		stroke := n.Color
		if n.Source {
			fill = "#1A9966"
			stroke = "#1A9966"
		}
		fmt.Fprintf(buf, `<circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s" fill-opacity="0.15" stroke="%s" stroke-width="2"/>`+"\n",
			n.Position.X, n.Position.Y, nodeRadius, fill, stroke)
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" font-size="%.0f" text-anchor="middle" font-family="sans-serif">%s</text>`+"\n",
			n.Position.X, n.Position.Y+nodeRadius+nameFontSize, nameFontSize, html.EscapeString(n.Name))
	}
}
