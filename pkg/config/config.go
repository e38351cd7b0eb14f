// Package config loads application configuration from a TOML file.
//
// The file lives at ~/.config/heirloom/config.toml (or
// $XDG_CONFIG_HOME/heirloom/config.toml) and every field has a working
// default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// appName is used for config, data, and cache directory names.
const appName = "heirloom"

// Config is the application configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Media  MediaConfig  `toml:"media"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "sqlite", "mongo", or "memory". Default "sqlite".
	Backend string `toml:"backend"`
	// Path is the sqlite database path. Default: <data dir>/heirloom.db.
	Path string `toml:"path"`
	// MongoURI and MongoDatabase configure the mongo backend.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// LayoutConfig holds auto-arrange spacing in canvas units.
type LayoutConfig struct {
	VSpacing float64 `toml:"vspacing"` // vertical distance between generations
	HSpacing float64 `toml:"hspacing"` // horizontal distance per person
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"` // listen address, default ":8473"
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none". Default "file".
	Backend       string `toml:"backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// MediaConfig configures the attachment vault.
type MediaConfig struct {
	Dir string `toml:"dir"` // default: <data dir>/media
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Store:  StoreConfig{Backend: "sqlite"},
		Layout: LayoutConfig{VSpacing: 180, HSpacing: 100},
		Server: ServerConfig{Addr: ":8473"},
		Cache:  CacheConfig{Backend: "file"},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		dir, err := Dir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	d := Default()
	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Layout.VSpacing <= 0 {
		c.Layout.VSpacing = d.Layout.VSpacing
	}
	if c.Layout.HSpacing <= 0 {
		c.Layout.HSpacing = d.Layout.HSpacing
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	return c
}

// Dir returns the config directory (~/.config/heirloom), creating nothing.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DataDir returns the data directory (~/.local/share/heirloom) and creates
// it if needed. The sqlite database and the media vault live here.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CacheDir returns the cache directory using the XDG standard
// (~/.cache/heirloom/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// StorePath resolves the sqlite database path, applying the default when
// unset.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "heirloom.db"), nil
}

// MediaDir resolves the media vault directory, applying the default when
// unset.
func (c Config) MediaDir() (string, error) {
	if c.Media.Dir != "" {
		return c.Media.Dir, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "media"), nil
}
