// Package config loads the formwin demo configuration: highlight group
// colors, window defaults, and key overrides. Defaults are authoritative;
// a user config file merges on top of them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/formwin/pkg/settings"
)

// ColorValue is a hex color or named terminal color.
type ColorValue string

// ThemeConfig maps toolkit highlight groups to colors.
type ThemeConfig struct {
	Header  ColorValue `yaml:"header"`
	Invalid ColorValue `yaml:"invalid"`
	Border  ColorValue `yaml:"border"`
	Label   ColorValue `yaml:"label"`
	Value   ColorValue `yaml:"value"`
}

// WindowConfig carries window defaults applied when a caller leaves the
// corresponding option unset.
type WindowConfig struct {
	PerWidth  float64 `yaml:"per_width"`
	PerHeight float64 `yaml:"per_height"`
	Border    *bool   `yaml:"border"`
	Style     string  `yaml:"style"`
}

// KeysConfig carries key overrides for form navigation.
type KeysConfig struct {
	Close  string `yaml:"close"`
	Submit string `yaml:"submit"`
}

// Config is the merged demo configuration.
type Config struct {
	Theme  ThemeConfig  `yaml:"theme"`
	Window WindowConfig `yaml:"window"`
	Keys   KeysConfig   `yaml:"keys"`
}

// Default returns the built-in configuration.
func Default() Config {
	border := true
	return Config{
		Theme: ThemeConfig{
			Header:  "#7aa2f7",
			Invalid: "#f7768e",
			Border:  "#565f89",
			Label:   "#9ece6a",
			Value:   "#c0caf5",
		},
		Window: WindowConfig{
			PerWidth:  0.5,
			PerHeight: 0.4,
			Border:    &border,
			Style:     "minimal",
		},
		Keys: KeysConfig{
			Close:  "<Esc>",
			Submit: "<CR>",
		},
	}
}

// DefaultPath returns the user config file location, or "" when the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settings.CliBinaryName, "config.yaml")
}

// Load returns the defaults merged with the config file at path. An empty
// path loads pure defaults; a missing file at an explicitly given path is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	merge(&cfg, overlay)
	return cfg, nil
}

// merge copies every non-zero overlay field onto cfg.
func merge(cfg *Config, overlay Config) {
	if overlay.Theme.Header != "" {
		cfg.Theme.Header = overlay.Theme.Header
	}
	if overlay.Theme.Invalid != "" {
		cfg.Theme.Invalid = overlay.Theme.Invalid
	}
	if overlay.Theme.Border != "" {
		cfg.Theme.Border = overlay.Theme.Border
	}
	if overlay.Theme.Label != "" {
		cfg.Theme.Label = overlay.Theme.Label
	}
	if overlay.Theme.Value != "" {
		cfg.Theme.Value = overlay.Theme.Value
	}
	if overlay.Window.PerWidth > 0 {
		cfg.Window.PerWidth = overlay.Window.PerWidth
	}
	if overlay.Window.PerHeight > 0 {
		cfg.Window.PerHeight = overlay.Window.PerHeight
	}
	if overlay.Window.Border != nil {
		cfg.Window.Border = overlay.Window.Border
	}
	if overlay.Window.Style != "" {
		cfg.Window.Style = overlay.Window.Style
	}
	if overlay.Keys.Close != "" {
		cfg.Keys.Close = overlay.Keys.Close
	}
	if overlay.Keys.Submit != "" {
		cfg.Keys.Submit = overlay.Keys.Submit
	}
}

// GroupColors returns the highlight-group-to-color mapping hosts use to
// style toolkit highlight groups.
func (c Config) GroupColors() map[string]ColorValue {
	return map[string]ColorValue{
		"FormwinHeader":  c.Theme.Header,
		"FormwinInvalid": c.Theme.Invalid,
		"FormwinBorder":  c.Theme.Border,
		"FormwinLabel":   c.Theme.Label,
		"FormwinValue":   c.Theme.Value,
	}
}
