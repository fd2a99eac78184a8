// Package config persists the host's settings: the enabled-plugin list,
// the plugins directory and the default render format, stored as TOML in
// the user's config directory. The enabled-plugin list here is the sole
// source of truth at registry startup and the sole write target on every
// enable or disable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk configuration. Mutating helpers write the whole
// file back immediately.
type Config struct {
	EnabledPlugins []string `toml:"enabled_plugins"`
	PluginsDir     string   `toml:"plugins_dir"`
	DefaultFormat  string   `toml:"default_format"`

	path string
}

// DefaultPath is ~/.config/lla/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lla", "config.toml"), nil
}

func defaults(path string) *Config {
	return &Config{
		EnabledPlugins: []string{},
		PluginsDir:     filepath.Join(filepath.Dir(path), "plugins"),
		DefaultFormat:  "default",
		path:           path,
	}
}

// Load reads the config at path. A missing file is not an error: defaults
// are written out so the first run leaves a file behind.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c := defaults(path)
		if err := c.Save(); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := defaults(path)
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// LoadDefault loads (or creates) the config at DefaultPath.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Path is the file this config round-trips through.
func (c *Config) Path() string { return c.path }

// Save writes the config back to its path, creating parent directories as
// needed.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", c.path, err)
	}
	return nil
}

// Enabled returns a copy of the enabled-plugin list.
func (c *Config) Enabled() []string {
	return slices.Clone(c.EnabledPlugins)
}

// EnablePlugin appends name to the enabled list if absent and saves.
func (c *Config) EnablePlugin(name string) error {
	if slices.Contains(c.EnabledPlugins, name) {
		return nil
	}
	c.EnabledPlugins = append(c.EnabledPlugins, name)
	return c.Save()
}

// DisablePlugin removes name from the enabled list and saves.
func (c *Config) DisablePlugin(name string) error {
	filtered := slices.DeleteFunc(slices.Clone(c.EnabledPlugins), func(n string) bool {
		return n == name
	})
	if len(filtered) == len(c.EnabledPlugins) {
		return nil
	}
	c.EnabledPlugins = filtered
	return c.Save()
}
