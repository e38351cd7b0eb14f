package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/media"
)

// personPhotoCommand creates the "person photo" subcommand managing the
// portrait attached to a person.
func (c *CLI) personPhotoCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "photo <person> [file]",
		Short: "Attach, show, or remove a person's portrait",
		Long: `Photo copies the given image into the media vault and records it on
the person. Without a file argument it prints the stored portrait's path.
With --remove the portrait is detached and deleted from the vault.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := findPerson(session.Tree, args[0])
			if err != nil {
				return err
			}

			dir, err := c.Config.MediaDir()
			if err != nil {
				return err
			}
			vault, err := media.NewVault(dir)
			if err != nil {
				return err
			}

			switch {
			case remove:
				if p.PhotoName == "" {
					printInfo("%s has no portrait", p.DisplayName())
					return nil
				}
				if err := vault.Delete(p.PhotoName); err != nil {
					return err
				}
				p.PhotoName = ""
				session.Tree.Touch()
				if err := session.Save(ctx); err != nil {
					return err
				}
				printSuccess("Removed portrait of %s", p.DisplayName())
				return nil

			case len(args) == 2:
				data, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				// Replacing an existing portrait deletes the old file first
				// so the vault never accumulates orphans.
				if p.PhotoName != "" {
					if err := vault.Delete(p.PhotoName); err != nil {
						c.Logger.Debug("delete old portrait failed", "err", err)
					}
				}
				name, err := vault.Save(data, filepath.Ext(args[1]))
				if err != nil {
					return err
				}
				p.PhotoName = name
				session.Tree.Touch()
				if err := session.Save(ctx); err != nil {
					return err
				}
				printSuccess("Attached portrait to %s", p.DisplayName())
				printDetail("Stored as %s", name)
				return nil

			default:
				if p.PhotoName == "" {
					printInfo("%s has no portrait", p.DisplayName())
					return nil
				}
				path, err := vault.Path(p.PhotoName)
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "detach and delete the portrait")
	return cmd
}
