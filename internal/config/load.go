package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load(flags *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := flags.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Elevation.Provider {
	case "flat":
	case "grid":
		if c.Elevation.GridFile == "" {
			return fmt.Errorf("%w: grid elevation needs grid_file", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown elevation provider %q", ErrInvalidConfig, c.Elevation.Provider)
	}

	switch c.Output.Format {
	case "obj", "tmsh":
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Output.Format)
	}

	if c.Tile.Workers < 0 {
		return fmt.Errorf("%w: negative worker count", ErrInvalidConfig)
	}

	for i, s := range c.Styles {
		switch s.Builder {
		case "area", "building", "barrier":
		default:
			return fmt.Errorf("%w: style %d (%s): unknown builder %q", ErrInvalidConfig, i, s.Name, s.Builder)
		}
		if s.Geometry.Area < 0 {
			return fmt.Errorf("%w: style %d (%s): negative area", ErrInvalidConfig, i, s.Name)
		}
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./terramesh.yaml",
		filepath.Join(ConfigDir(), "terramesh.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Terramesh")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Terramesh")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "terramesh")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "terramesh")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// A styles list in the file replaces the defaults.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	return nil
}
