package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// personCommand creates the person management command.
func (c *CLI) personCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Add, list, link, and remove people",
	}

	cmd.AddCommand(c.personAddCommand())
	cmd.AddCommand(c.personListCommand())
	cmd.AddCommand(c.personLinkCommand())
	cmd.AddCommand(c.personPartnerCommand())
	cmd.AddCommand(c.personRemoveCommand())
	cmd.AddCommand(c.personPhotoCommand())

	return cmd
}

// personAddCommand creates the "person add" subcommand.
func (c *CLI) personAddCommand() *cobra.Command {
	var (
		generation int
		birthDate  string
		bio        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person to the tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			p := tree.NewPerson(args[0])
			p.Generation = generation
			p.Bio = bio
			if birthDate != "" {
				t, err := time.Parse("2006-01-02", birthDate)
				if err != nil {
					return fmt.Errorf("parse --born (want YYYY-MM-DD): %w", err)
				}
				p.BirthDate = &t
			}
			if err := session.Tree.Add(p); err != nil {
				return err
			}
			if err := session.Save(ctx); err != nil {
				return err
			}

			printSuccess("Added %s", p.DisplayName())
			printDetail("ID: %s", p.ID)
			printNextStep("Link to a parent", fmt.Sprintf("%s person link <parent-id> %s", appName, p.ID))
			return nil
		},
	}

	cmd.Flags().IntVarP(&generation, "generation", "g", 0, "generation row (0 is the root generation)")
	cmd.Flags().StringVar(&birthDate, "born", "", "birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bio, "bio", "", "short biography")
	return cmd
}

// personListCommand creates the "person list" subcommand.
func (c *CLI) personListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List everyone in the tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			people := session.Tree.People()
			if len(people) == 0 {
				printInfo("Tree is empty")
				printNextStep("Add someone", fmt.Sprintf("%s person add \"Ada\"", appName))
				return nil
			}

			for _, gen := range session.Tree.Generations() {
				fmt.Println(StyleTitle.Render(fmt.Sprintf("Generation %d", gen)))
				for _, p := range people {
					if p.Generation != gen {
						continue
					}
					line := fmt.Sprintf("  %s  %s", StyleValue.Render(p.DisplayName()), StyleDim.Render(p.ID))
					if partners := session.Tree.Partners(p.ID); len(partners) > 0 {
						names := make([]string, len(partners))
						for i, q := range partners {
							names[i] = q.DisplayName()
						}
						line += StyleDim.Render("  ♥ " + strings.Join(names, ", "))
					}
					fmt.Println(line)
				}
			}
			printStats(len(people), relationshipCount(session.Tree), false)
			return nil
		},
	}
}

// personLinkCommand creates the "person link" subcommand.
func (c *CLI) personLinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <parent> <child>",
		Short: "Link a parent to a child",
		Long:  `Link a parent to a child. Arguments may be person IDs or unambiguous name prefixes. The child's generation becomes the parent's generation plus one.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			parent, err := findPerson(session.Tree, args[0])
			if err != nil {
				return err
			}
			child, err := findPerson(session.Tree, args[1])
			if err != nil {
				return err
			}

			if err := session.Tree.Link(parent.ID, child.ID); err != nil {
				switch {
				case errors.Is(err, tree.ErrSelfRelation):
					return fmt.Errorf("%s cannot be their own parent", parent.DisplayName())
				case errors.Is(err, tree.ErrCyclicLink):
					return fmt.Errorf("%s is a descendant of %s; linking would create a cycle", parent.DisplayName(), child.DisplayName())
				default:
					return err
				}
			}
			if err := session.Save(ctx); err != nil {
				return err
			}

			printSuccess("%s %s %s", parent.DisplayName(), iconArrow, child.DisplayName())
			printDetail("%s moved to generation %d", child.DisplayName(), child.Generation)
			return nil
		},
	}
}

// personPartnerCommand creates the "person partner" subcommand.
func (c *CLI) personPartnerCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "partner <a> <b>",
		Short: "Register two people as partners",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			a, err := findPerson(session.Tree, args[0])
			if err != nil {
				return err
			}
			b, err := findPerson(session.Tree, args[1])
			if err != nil {
				return err
			}

			if remove {
				session.Tree.Unpartner(a.ID, b.ID)
				if err := session.Save(ctx); err != nil {
					return err
				}
				printSuccess("Unpartnered %s and %s", a.DisplayName(), b.DisplayName())
				return nil
			}

			if err := session.Tree.Partner(a.ID, b.ID); err != nil {
				return err
			}
			if err := session.Save(ctx); err != nil {
				return err
			}
			printSuccess("%s ♥ %s", a.DisplayName(), b.DisplayName())
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "remove the partnership instead")
	return cmd
}

// personRemoveCommand creates the "person rm" subcommand.
func (c *CLI) personRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <person>",
		Aliases: []string{"remove"},
		Short:   "Remove a person and all their relationships",
		Args:    cobra.ExactArgs(1),
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
			session.Tree.Remove(p.ID)
			if err := session.Save(ctx); err != nil {
				return err
			}
			printSuccess("Removed %s", p.DisplayName())
			return nil
		},
	}
}

// findPerson resolves a person by exact ID or by unambiguous name prefix.
func findPerson(t *tree.Tree, query string) (*tree.Person, error) {
	if p, ok := t.Person(query); ok {
		return p, nil
	}

	lower := strings.ToLower(query)
	var matches []*tree.Person
	for _, p := range t.People() {
		if strings.HasPrefix(strings.ToLower(p.Name), lower) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no person matching %q", query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = fmt.Sprintf("%s (%s)", p.DisplayName(), p.ID)
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}

// relationshipCount counts parent links and partnerships once each.
func relationshipCount(t *tree.Tree) int {
	count := 0
	for _, p := range t.People() {
		count += len(t.Children(p.ID))
		for _, q := range t.Partners(p.ID) {
			if p.ID < q.ID {
				count++
			}
		}
	}
	return count
}
