// Package config provides configuration loading and defaults for birdwatch.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrEmptyConfig indicates the configuration file parsed to nothing.
	ErrEmptyConfig = errors.New("configuration file is empty")

	// ErrMissingBaseURL indicates api.base_url is required but absent.
	ErrMissingBaseURL = errors.New("api.base_url is required")

	// ErrInvalidTimeout indicates a non-positive API timeout.
	ErrInvalidTimeout = errors.New("api.timeout must be positive")

	// ErrMissingModel indicates detection.model is empty.
	ErrMissingModel = errors.New("detection.model is required")

	// ErrInvalidThreshold indicates a confidence threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("detection.confidence_threshold out of range")

	// ErrInvalidFrameTime indicates a negative frame time.
	ErrInvalidFrameTime = errors.New("detection.frame_times must be non-negative")

	// ErrInvalidAreaBounds indicates min_area_percent exceeds max_area_percent.
	ErrInvalidAreaBounds = errors.New("detection area bounds invalid")

	// ErrMissingDatabasePath indicates database.path is empty.
	ErrMissingDatabasePath = errors.New("database.path is required")
)
