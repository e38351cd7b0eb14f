package cli

import (
	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// importCommand creates the "import" command loading a JSON snapshot into
// the store.
func (c *CLI) importCommand() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a tree from a JSON snapshot",
		Long: `Import replaces the stored tree with the snapshot in the given JSON
file (see examples/family.json for the format). With --merge, people from
the file are added to the existing tree instead; people whose IDs already
exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			imported, err := tree.ReadFile(args[0])
			if err != nil {
				return err
			}

			if !merge {
				session.Tree = imported
			} else {
				added := 0
				for _, p := range imported.People() {
					if _, exists := session.Tree.Person(p.ID); exists {
						continue
					}
					if err := session.Tree.Add(p); err != nil {
						return err
					}
					added++
				}
				for _, p := range imported.People() {
					for _, parent := range imported.Parents(p.ID) {
						if err := session.Tree.Link(parent.ID, p.ID); err != nil {
							c.Logger.Debug("skipping edge", "parent", parent.ID, "child", p.ID, "err", err)
						}
					}
					for _, partner := range imported.Partners(p.ID) {
						if err := session.Tree.Partner(p.ID, partner.ID); err != nil {
							c.Logger.Debug("skipping partnership", "a", p.ID, "b", partner.ID, "err", err)
						}
					}
				}
				c.Logger.Info("merged", "added", added)
			}

			if err := session.Save(ctx); err != nil {
				return err
			}
			printSuccess("Imported %d people", imported.Len())
			printStats(session.Tree.Len(), relationshipCount(session.Tree), false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "add to the existing tree instead of replacing it")
	return cmd
}

// dumpCommand creates the "dump" command writing the stored tree as JSON.
func (c *CLI) dumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Write the stored tree to a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := tree.WriteFile(session.Tree, args[0]); err != nil {
				return err
			}
			printSuccess("Dumped %d people", session.Tree.Len())
			printFile(args[0])
			return nil
		},
	}
}
