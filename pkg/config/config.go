// Package config handles loading and saving pplot configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/pplot/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UIConfig holds viewer preference settings.
type UIConfig struct {
	DisplayMode string `yaml:"display_mode,omitempty"` // range-with-mean, instances, mean, instances-with-mean
	ErrorBars   bool   `yaml:"error_bars,omitempty"`
	Accent      string `yaml:"accent,omitempty"` // lipgloss color for the emphasized tier
}

// SnapshotConfig controls static chart export defaults.
type SnapshotConfig struct {
	Preset string `yaml:"preset,omitempty"` // compact or roomy
	Format string `yaml:"format,omitempty"` // svg or png
}

// WatchConfig controls dataset auto-reload.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled,omitempty"`
	DebounceMS int  `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration for pplot.
type Config struct {
	UI       UIConfig       `yaml:"ui,omitempty"`
	Snapshot SnapshotConfig `yaml:"snapshot,omitempty"`
	Watch    WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with the classic line-plot defaults:
// range-with-mean display, error bars off.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			DisplayMode: "range-with-mean",
			Accent:      "205",
		},
		Snapshot: SnapshotConfig{
			Preset: "compact",
			Format: "svg",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMS: 250,
		},
	}
}

// ConfigDir returns the XDG config directory for pplot.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pplot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pplot")
}

// ConfigPath returns the path of the config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file, falling back to defaults when it does not
// exist. Unknown keys are ignored.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config file, creating the config directory if needed.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes a config file to an explicit path.
func SaveTo(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("no config path available")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
