package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
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
		return filepath.Join(home, "Library", "Application Support", "Marionette")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Marionette")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "marionette")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "marionette")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Animation.PlaybackSpeed <= 0 {
		return fmt.Errorf("animation.playback_speed must be positive, got %v", c.Animation.PlaybackSpeed)
	}
	if c.Animation.MaxJoints <= 0 {
		return fmt.Errorf("animation.max_joints must be positive, got %d", c.Animation.MaxJoints)
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics size must be positive, got %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Lighting.Elevation < -90 || c.Lighting.Elevation > 90 {
		return fmt.Errorf("lighting.elevation must be within [-90, 90], got %v", c.Lighting.Elevation)
	}
	for _, a := range c.Lighting.Ambient {
		if a < 0 || a > 1 {
			return fmt.Errorf("lighting.ambient components must be within [0, 1], got %v", c.Lighting.Ambient)
		}
	}
	return nil
}
