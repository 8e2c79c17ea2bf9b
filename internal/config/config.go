// Package config provides configuration loading and defaults for birdwatch.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default constants
const (
	// DefaultAPITimeoutSecs is the HTTP timeout for camera-API requests.
	DefaultAPITimeoutSecs = 30

	// DefaultModel is the detection model file loaded when none is configured.
	DefaultModel = "yolov5s.onnx"

	// DefaultConfidenceThreshold is the minimum detection confidence kept.
	DefaultConfidenceThreshold = 0.5

	// DefaultFrameTime is the sample timestamp used when frame_times is empty
	// in the configuration file (seconds).
	DefaultFrameTime = 6.0

	// DefaultDatabasePath is the SQLite database file.
	DefaultDatabasePath = "bird_detections.db"

	// ExtractionTimeoutSecs bounds a single ffmpeg/ffprobe invocation.
	ExtractionTimeoutSecs = 60
)

// APIConfig contains camera-API connection settings.
type APIConfig struct {
	BaseURL     string `yaml:"base_url" env:"BIRDWATCH_API_BASE_URL"`
	TimeoutSecs int    `yaml:"timeout" env:"BIRDWATCH_API_TIMEOUT"`
}

// DetectionConfig contains detector and sampling settings.
type DetectionConfig struct {
	Model               string    `yaml:"model" env:"BIRDWATCH_DETECTION_MODEL"`
	ConfidenceThreshold float64   `yaml:"confidence_threshold" env:"BIRDWATCH_DETECTION_CONFIDENCE_THRESHOLD"`
	FrameTimes          []float64 `yaml:"frame_times" env:"BIRDWATCH_DETECTION_FRAME_TIMES"`
	MinAreaPercent      *float64  `yaml:"min_area_percent" env:"BIRDWATCH_DETECTION_MIN_AREA_PERCENT"`
	MaxAreaPercent      *float64  `yaml:"max_area_percent" env:"BIRDWATCH_DETECTION_MAX_AREA_PERCENT"`
}

// DatabaseConfig contains result-store settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"BIRDWATCH_DATABASE_PATH"`
}

// OutputsConfig contains output-saving settings.
type OutputsConfig struct {
	// Directory receives copies of videos in which a bird was found.
	// Empty disables output saving.
	Directory string `yaml:"directory" env:"BIRDWATCH_OUTPUTS_DIRECTORY"`
}

// Config is the application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Detection DetectionConfig `yaml:"detection"`
	Database  DatabaseConfig  `yaml:"database"`
	Outputs   OutputsConfig   `yaml:"outputs"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		API: APIConfig{
			TimeoutSecs: DefaultAPITimeoutSecs,
		},
		Detection: DetectionConfig{
			Model:               DefaultModel,
			ConfidenceThreshold: DefaultConfidenceThreshold,
			FrameTimes:          []float64{DefaultFrameTime},
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath,
		},
	}
}

// Load reads a YAML configuration file, applies defaults for absent fields,
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyConfig
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse configuration file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("cannot apply environment overrides: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	// An explicitly empty frame_times list is preserved: the extractor
	// falls back to a single sample at half the video duration.
	return cfg, nil
}

// Validate checks configuration invariants that apply in every mode.
// api.base_url is checked separately because test mode does not use the API.
func (c *Config) Validate() error {
	if c.API.TimeoutSecs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.API.TimeoutSecs)
	}
	if c.Detection.Model == "" {
		return ErrMissingModel
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidThreshold, c.Detection.ConfidenceThreshold)
	}
	for _, t := range c.Detection.FrameTimes {
		if t < 0 {
			return fmt.Errorf("%w: %g", ErrInvalidFrameTime, t)
		}
	}
	if c.Detection.MinAreaPercent != nil && c.Detection.MaxAreaPercent != nil &&
		*c.Detection.MinAreaPercent > *c.Detection.MaxAreaPercent {
		return fmt.Errorf("%w: min %g > max %g", ErrInvalidAreaBounds,
			*c.Detection.MinAreaPercent, *c.Detection.MaxAreaPercent)
	}
	if c.Database.Path == "" {
		return ErrMissingDatabasePath
	}
	return nil
}

// ValidateAPI checks settings that batch mode requires.
func (c *Config) ValidateAPI() error {
	if c.API.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}
