package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// DOTOptions configures node-link export.
type DOTOptions struct {
	// Detailed includes generation numbers in node labels.
	Detailed bool

	// Colors resolves a generation to a node fill; nil leaves nodes white.
	Colors func(generation int) string
}

// ToDOT converts a tree to Graphviz DOT format for a node-link diagram.
// Parent edges are directed; partner edges are drawn once per pair as
// dashed, undirected connections constrained to the same rank.
func ToDOT(t *tree.Tree, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph family {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range t.People() {
		label := p.DisplayName()
		if opts.Detailed {
			label = fmt.Sprintf("%s\ngen %d", label, p.Generation)
		}
		attrs := fmt.Sprintf("label=%q", label)
		if opts.Colors != nil {
			attrs += fmt.Sprintf(", fillcolor=%q, fontcolor=white", opts.Colors(p.Generation))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, attrs)
	}

	buf.WriteString("\n")
	for _, p := range t.People() {
		for _, child := range t.Children(p.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p.ID, child.ID)
		}
		for _, partner := range t.Partners(p.ID) {
			if p.ID < partner.ID {
				fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dashed, constraint=false];\n", p.ID, partner.ID)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// DOTSVG renders a DOT graph to SVG using Graphviz.
func DOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the graphviz SVG header to a zero-origin
// viewBox with explicit pixel dimensions, which downstream converters
// handle more predictably.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
