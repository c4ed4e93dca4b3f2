// Package config provides configuration loading and management for niiexplorer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is the application name used for XDG directory paths.
const AppName = "niiexplorer"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Viewer parameters
	Viewer struct {
		// DefaultAxis is the axis selected when a session starts
		DefaultAxis string `yaml:"defaultAxis"`

		// ZoomMin and ZoomMax bound the display zoom, in percent
		ZoomMin int `yaml:"zoomMin"`
		ZoomMax int `yaml:"zoomMax"`

		// ZoomDefault is the initial zoom, in percent
		ZoomDefault int `yaml:"zoomDefault"`

		// Extensions lists the filename suffixes of volumes shown in a folder
		Extensions []string `yaml:"extensions"`
	} `yaml:"viewer"`

	// Annotation file parameters
	Annotations struct {
		// FileName is the name of the annotation file at the folder root
		FileName string `yaml:"fileName"`

		// ExportSuffix is appended to a volume filename for single-file exports
		ExportSuffix string `yaml:"exportSuffix"`
	} `yaml:"annotations"`

	// Render parameters
	Render struct {
		// Output is the image file the current view is written to
		Output string `yaml:"output"`

		// Format is either "png" or "jpeg"
		Format string `yaml:"format"`

		// Quality is the JPEG quality (1-100)
		Quality int `yaml:"quality"`

		// Interpolation is one of "nearest", "bilinear" or "catmullrom"
		Interpolation string `yaml:"interpolation"`

		// Window is "minmax" or "percentile"
		Window string `yaml:"window"`

		// LowPercentile and HighPercentile bound the percentile window (0-1)
		LowPercentile  float64 `yaml:"lowPercentile"`
		HighPercentile float64 `yaml:"highPercentile"`
	} `yaml:"render"`

	// Cache parameters for decoded volumes
	Cache struct {
		Enabled bool `yaml:"enabled"`

		// TTLSeconds is how long a decoded volume stays cached
		TTLSeconds int `yaml:"ttlSeconds"`

		// CleanupSeconds is the interval between expired entry sweeps
		CleanupSeconds int `yaml:"cleanupSeconds"`
	} `yaml:"cache"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.DefaultAxis = "axial"
	cfg.Viewer.ZoomMin = 10
	cfg.Viewer.ZoomMax = 500
	cfg.Viewer.ZoomDefault = 100
	cfg.Viewer.Extensions = []string{".nii", ".nii.gz"}

	cfg.Annotations.FileName = "annotations.json"
	cfg.Annotations.ExportSuffix = "_annotation.json"

	cfg.Render.Output = filepath.Join(CacheDir(), "view.png")
	cfg.Render.Format = "png"
	cfg.Render.Quality = 90
	cfg.Render.Interpolation = "catmullrom"
	cfg.Render.Window = "minmax"
	cfg.Render.LowPercentile = 0.01
	cfg.Render.HighPercentile = 0.99

	cfg.Cache.Enabled = true
	cfg.Cache.TTLSeconds = 600
	cfg.Cache.CleanupSeconds = 60

	cfg.Output.Verbose = false

	return cfg
}

// ConfigDir returns the XDG config directory for niiexplorer.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// CacheDir returns the XDG cache directory for niiexplorer.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultPath returns the default location of the configuration file
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable
func (c *Config) Validate() error {
	if c.Viewer.ZoomMin <= 0 {
		return fmt.Errorf("viewer.zoomMin must be positive, got %d", c.Viewer.ZoomMin)
	}
	if c.Viewer.ZoomMax < c.Viewer.ZoomMin {
		return fmt.Errorf("viewer.zoomMax (%d) is below viewer.zoomMin (%d)", c.Viewer.ZoomMax, c.Viewer.ZoomMin)
	}
	if len(c.Viewer.Extensions) == 0 {
		return fmt.Errorf("viewer.extensions must not be empty")
	}
	if c.Annotations.FileName == "" {
		return fmt.Errorf("annotations.fileName must not be empty")
	}
	switch c.Render.Format {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("render.format must be png or jpeg, got %q", c.Render.Format)
	}
	if c.Render.LowPercentile < 0 || c.Render.HighPercentile > 1 || c.Render.LowPercentile >= c.Render.HighPercentile {
		return fmt.Errorf("render percentiles must satisfy 0 <= low < high <= 1")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
