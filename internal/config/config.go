// Package config handles LithoStream service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Files   FilesConfig   `yaml:"files"`
	Litho   LithoConfig   `yaml:"litho"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FilesConfig holds temporary artifact settings.
type FilesConfig struct {
	TempDir string `yaml:"temp_dir"`
}

// LithoConfig holds the default lithophane parameters, overridable per
// request through the API form fields.
type LithoConfig struct {
	MinThickness   float64 `yaml:"min_thickness"`   // mm, white areas
	MaxThickness   float64 `yaml:"max_thickness"`   // mm, black areas
	FrameThickness float64 `yaml:"frame_thickness"` // mm
	FrameHeight    float64 `yaml:"frame_height"`    // mm above the tallest relief
	Resolution     float64 `yaml:"resolution"`      // samples per mm
	WidthMM        float64 `yaml:"width_mm"`
	HeightMM       float64 `yaml:"height_mm"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock service values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Files: FilesConfig{
			TempDir: "temps",
		},
		Litho: LithoConfig{
			MinThickness:   0.5,
			MaxThickness:   3.0,
			FrameThickness: 1.0,
			FrameHeight:    2.0,
			Resolution:     5,
			WidthMM:        100,
			HeightMM:       150,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration with priority: defaults < file. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
