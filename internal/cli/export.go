package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/cache"
	"github.com/bitdegree/heirloom/pkg/canvas"
	"github.com/bitdegree/heirloom/pkg/palette"
	"github.com/bitdegree/heirloom/pkg/render"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// exportMargin is the grid padding around the outermost nodes.
const exportMargin = 200.0

// artifactTTL bounds how long cached exports live.
const artifactTTL = 24 * time.Hour

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		noCache  bool
		graphviz bool
		pngScale float64
	)

	cmd := &cobra.Command{
		Use:   "export <output-file>",
		Short: "Export the tree as SVG, PNG, PDF, or DOT",
		Long: `Export renders the tree to the given file. The format is inferred from
the extension: .svg, .png, .pdf, or .dot (Graphviz source).

By default the canvas renderer is used, preserving stored positions, the
grid, and generation colors. With --graphviz the tree is laid out by
graphviz instead, which ignores stored positions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := args[0]
			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
			switch format {
			case "svg", "png", "pdf", "dot":
			default:
				return fmt.Errorf("unsupported output format %q (want .svg, .png, .pdf, or .dot)", filepath.Ext(out))
			}

			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if session.Tree.Len() == 0 {
				printWarning("Tree is empty, nothing to export")
				return nil
			}

			pal := c.openPalette(ctx, st)
			artifacts, err := c.newCache(ctx, noCache)
			if err != nil {
				c.Logger.Debug("artifact cache unavailable", "err", err)
				artifacts = cache.NewNullCache()
			}
			defer artifacts.Close()

			if format == "dot" {
				dot := render.ToDOT(session.Tree, render.DOTOptions{Colors: pal.ColorFor})
				if err := os.WriteFile(out, []byte(dot), 0644); err != nil {
					return err
				}
				printSuccess("Exported DOT")
				printFile(out)
				return nil
			}

			snap, err := json.Marshal(tree.Take(session.Tree))
			if err != nil {
				return err
			}
			key := cache.ArtifactKey(snap, format, renderVariant(graphviz), fmt.Sprintf("scale=%g", pngScale))

			data, cached, err := artifacts.Get(ctx, key)
			if err != nil {
				c.Logger.Debug("cache read failed", "err", err)
			}
			if !cached {
				data, err = c.renderArtifact(cmd, session.Tree, pal, format, graphviz, pngScale)
				if err != nil {
					return err
				}
				if err := artifacts.Set(ctx, key, data, artifactTTL); err != nil {
					c.Logger.Debug("cache write failed", "err", err)
				}
			}

			if err := os.WriteFile(out, data, 0644); err != nil {
				return err
			}
			printSuccess("Exported %s", strings.ToUpper(format))
			printFile(out)
			printStats(session.Tree.Len(), relationshipCount(session.Tree), cached)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().BoolVar(&graphviz, "graphviz", false, "lay out with graphviz instead of stored positions")
	cmd.Flags().Float64Var(&pngScale, "scale", 2.0, "PNG raster scale factor")
	return cmd
}

// renderArtifact produces the requested artifact bytes from the tree.
func (c *CLI) renderArtifact(cmd *cobra.Command, t *tree.Tree, pal *palette.Palette, format string, graphviz bool, pngScale float64) ([]byte, error) {
	ctx := cmd.Context()

	var svg []byte
	if graphviz {
		sp := newSpinnerWithContext(ctx, "Rendering with graphviz...")
		sp.Start()
		dot := render.ToDOT(t, render.DOTOptions{Colors: pal.ColorFor})
		out, err := render.DOTSVG(ctx, dot)
		sp.Stop()
		if err != nil {
			return nil, fmt.Errorf("graphviz render: %w", err)
		}
		svg = out
	} else {
		vp := canvas.NewViewport()
		scene := canvas.Compose(t, vp, pal.ColorFor, canvas.Bounds(t, exportMargin), nil)
		svg = render.SceneSVG(scene, render.SVGOptions{})
	}

	switch format {
	case "svg":
		return svg, nil
	case "pdf":
		sp := newSpinnerWithContext(ctx, "Converting to PDF...")
		sp.Start()
		out, err := render.ToPDF(svg)
		sp.Stop()
		return out, err
	case "png":
		sp := newSpinnerWithContext(ctx, "Converting to PNG...")
		sp.Start()
		out, err := render.ToPNG(svg, pngScale)
		sp.Stop()
		return out, err
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// renderVariant names the layout pipeline for cache keying.
func renderVariant(graphviz bool) string {
	if graphviz {
		return "graphviz"
	}
	return "canvas"
}
