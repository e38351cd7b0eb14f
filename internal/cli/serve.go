package cli

import (
	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/internal/server"
)

// serveCommand creates the "serve" command running the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over HTTP and websocket",
		Long: `Serve exposes the tree as a JSON API with live change notifications
over a websocket. Edits made through the API are persisted to the
configured store; external changes to the store are picked up and
broadcast to connected clients where the backend supports watching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			artifacts, err := c.newCache(ctx, noCache)
			if err != nil {
				c.Logger.Warn("artifact cache unavailable, caching disabled", "err", err)
				artifacts = nil
			} else {
				defer artifacts.Close()
			}

			if addr == "" {
				addr = c.Config.Server.Addr
			}

			srv := server.New(server.Options{
				Session: session,
				Store:   st,
				Palette: c.openPalette(ctx, st),
				Cache:   artifacts,
				Logger:  c.Logger,
				Layout:  c.layoutOptions(),
			})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8473\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	return cmd
}
