// Package cli implements the heirloom command-line interface.
//
// This package provides commands for editing a genealogy tree from the
// terminal, auto-arranging it, exporting it as SVG, PNG, PDF, or DOT, and
// serving it over HTTP for browser clients. The CLI is built using cobra
// and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - canvas: Interactive terminal canvas with pan, zoom, and connect mode
//   - person: Add, list, link, and remove people
//   - arrange: Auto-layout the tree by generation
//   - export: Generate SVG, PDF, PNG, or DOT output
//   - serve: Run the HTTP and websocket server
//   - cache: Manage the rendered artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/buildinfo"
	"github.com/bitdegree/heirloom/pkg/cache"
	"github.com/bitdegree/heirloom/pkg/config"
	"github.com/bitdegree/heirloom/pkg/layout"
	"github.com/bitdegree/heirloom/pkg/palette"
	"github.com/bitdegree/heirloom/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "heirloom"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Heirloom edits and renders genealogy trees",
		Long:         `Heirloom is a canvas engine for genealogy trees: edit people and relationships, auto-arrange them by generation, pan and zoom an interactive canvas, and export the result as SVG, PNG, PDF, or Graphviz DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path (default: ~/.config/heirloom/config.toml)")

	// Register all subcommands
	root.AddCommand(c.canvasCommand())
	root.AddCommand(c.personCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.dumpCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// openStore creates the configured persistence backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	switch c.Config.Store.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "mongo":
		return store.NewMongo(ctx, store.MongoConfig{
			URI:      c.Config.Store.MongoURI,
			Database: c.Config.Store.MongoDatabase,
		})
	case "sqlite", "":
		path, err := c.Config.StorePath()
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
		return store.NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Config.Store.Backend)
	}
}

// openSession opens the configured store and loads the tree from it.
func (c *CLI) openSession(ctx context.Context) (*store.Session, store.Store, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	session, err := store.Open(ctx, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return session, st, nil
}

// openPalette loads generation color assignments from the store.
func (c *CLI) openPalette(ctx context.Context, st store.Store) *palette.Palette {
	return palette.New(ctx, st, c.Logger)
}

// newCache creates the configured artifact cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
	default:
		dir, err := config.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// layoutOptions builds layout options from config.
func (c *CLI) layoutOptions() layout.Options {
	return layout.Options{
		VSpacing: c.Config.Layout.VSpacing,
		HSpacing: c.Config.Layout.HSpacing,
	}
}
