// Package config loads crossref.yaml, the settings shared by the demo binary and
// the editor tooling.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	DefaultMaxMintAttempts = 5
	DefaultMappingsPath    = "guid_mappings.yaml"
)

// Config is the root of crossref.yaml.
type Config struct {
	// LogMode selects the zap preset: "development" or "production".
	LogMode string `yaml:"log_mode,omitempty"`

	// Editor enables edit-time reconciliation through the mapping store.
	Editor       bool   `yaml:"editor,omitempty"`
	MappingsPath string `yaml:"mappings_path,omitempty"`

	// MaxMintAttempts caps collision retries when a holder mints identifiers.
	MaxMintAttempts int `yaml:"max_mint_attempts,omitempty"`

	// StrictRegistry turns registry invariant violations into panics.
	StrictRegistry bool `yaml:"strict_registry,omitempty"`

	// ExcludedComponents lists component type names that never get an identity.
	ExcludedComponents []string `yaml:"excluded_components,omitempty"`

	Scenes []string     `yaml:"scenes,omitempty"`
	Window WindowConfig `yaml:"window,omitempty"`
}

type WindowConfig struct {
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		LogMode:         "development",
		MappingsPath:    DefaultMappingsPath,
		MaxMintAttempts: DefaultMaxMintAttempts,
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "crossref",
		},
	}
}

// Load reads path on top of Default. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.LogMode == "" {
		c.LogMode = def.LogMode
	}
	if c.MappingsPath == "" {
		c.MappingsPath = def.MappingsPath
	}
	if c.MaxMintAttempts == 0 {
		c.MaxMintAttempts = def.MaxMintAttempts
	}
	if c.Window.Width == 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxMintAttempts < 1 {
		return fmt.Errorf("%w: max_mint_attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxMintAttempts)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size must be positive", ErrInvalidConfig)
	}
	for _, name := range c.ExcludedComponents {
		if name == "" {
			return fmt.Errorf("%w: empty name in excluded_components", ErrInvalidConfig)
		}
	}
	return nil
}
