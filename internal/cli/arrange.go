package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/layout"
)

// arrangeCommand creates the "arrange" command that auto-lays out the tree.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		dryRun   bool
		vspacing float64
		hspacing float64
	)

	cmd := &cobra.Command{
		Use:   "arrange",
		Short: "Auto-arrange the tree by generation",
		Long:  `Arrange recomputes every person's canvas position from scratch: generations become rows, partners are placed side by side, and manual positioning is discarded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := c.layoutOptions()
			if vspacing > 0 {
				opts.VSpacing = vspacing
			}
			if hspacing > 0 {
				opts.HSpacing = hspacing
			}

			prog := newProgress(c.Logger)
			result := layout.Compute(session.Tree, opts)

			if dryRun {
				for _, p := range session.Tree.People() {
					pos := result[p.ID]
					fmt.Printf("%-24s gen %d  (%.0f, %.0f)\n", p.DisplayName(), p.Generation, pos.X, pos.Y)
				}
				printInfo("Dry run, nothing saved")
				return nil
			}

			moved := layout.Apply(session.Tree, result)
			if err := session.Save(ctx); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Arranged %d people", moved))
			printNextStep("See the result", fmt.Sprintf("%s export tree.svg", appName))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print positions without saving")
	cmd.Flags().Float64Var(&vspacing, "vspacing", 0, "vertical spacing between generations (default from config)")
	cmd.Flags().Float64Var(&hspacing, "hspacing", 0, "horizontal spacing between people (default from config)")
	return cmd
}
