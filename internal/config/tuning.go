// Package config loads the analysis tuning file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the analysis defaults. Fields are pointers so a partial
// JSON file only overrides what it names; the Get* accessors supply the
// built-in defaults for everything else.
type TuningConfig struct {
	// Filter params
	MinLng        *float64 `json:"min_lng,omitempty"`
	MaxLng        *float64 `json:"max_lng,omitempty"`
	MinLat        *float64 `json:"min_lat,omitempty"`
	MaxLat        *float64 `json:"max_lat,omitempty"`
	MinPassengers *int     `json:"min_passengers,omitempty"`
	MaxPassengers *int     `json:"max_passengers,omitempty"`
	MaxDistance   *float64 `json:"max_distance_miles,omitempty"`
	MaxFare       *float64 `json:"max_fare,omitempty"`
	MaxDuration   *string  `json:"max_duration,omitempty"` // duration string like "6h"

	// Sampling params
	SampleFraction *float64 `json:"sample_fraction,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`

	// Clustering params
	Clusters      *int     `json:"clusters,omitempty"`
	MaxIterations *int     `json:"max_iterations,omitempty"`
	Tolerance     *float64 `json:"tolerance,omitempty"`
}

// Built-in defaults. The bounding box covers the five boroughs plus the
// airports; the rest mirror the hub analysis writeup.
const (
	defaultMinLng         = -74.30
	defaultMaxLng         = -73.60
	defaultMinLat         = 40.45
	defaultMaxLat         = 41.00
	defaultMinPassengers  = 1
	defaultMaxPassengers  = 9
	defaultMaxDistance    = 100.0
	defaultMaxFare        = 500.0
	defaultMaxDuration    = 6 * time.Hour
	defaultSampleFraction = 0.01
	defaultSeed           = int64(10)
	defaultClusters       = 40
	defaultMaxIterations  = 100
	defaultTolerance      = 0.0
)

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects values that would make a run meaningless.
func (c *TuningConfig) Validate() error {
	if c.MinLng != nil && c.MaxLng != nil && *c.MinLng >= *c.MaxLng {
		return fmt.Errorf("min_lng (%v) must be less than max_lng (%v)", *c.MinLng, *c.MaxLng)
	}
	if c.MinLat != nil && c.MaxLat != nil && *c.MinLat >= *c.MaxLat {
		return fmt.Errorf("min_lat (%v) must be less than max_lat (%v)", *c.MinLat, *c.MaxLat)
	}
	if c.SampleFraction != nil && (*c.SampleFraction <= 0 || *c.SampleFraction > 1) {
		return fmt.Errorf("sample_fraction must be in (0, 1], got %v", *c.SampleFraction)
	}
	if c.Clusters != nil && *c.Clusters <= 0 {
		return fmt.Errorf("clusters must be positive, got %d", *c.Clusters)
	}
	if c.MaxIterations != nil && *c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", *c.MaxIterations)
	}
	if c.Tolerance != nil && *c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %v", *c.Tolerance)
	}
	if c.MaxDuration != nil {
		if _, err := time.ParseDuration(*c.MaxDuration); err != nil {
			return fmt.Errorf("max_duration: %w", err)
		}
	}
	return nil
}

// Accessors with defaults.

func (c *TuningConfig) GetMinLng() float64 { return f64(c.MinLng, defaultMinLng) }
func (c *TuningConfig) GetMaxLng() float64 { return f64(c.MaxLng, defaultMaxLng) }
func (c *TuningConfig) GetMinLat() float64 { return f64(c.MinLat, defaultMinLat) }
func (c *TuningConfig) GetMaxLat() float64 { return f64(c.MaxLat, defaultMaxLat) }

func (c *TuningConfig) GetMinPassengers() int { return i(c.MinPassengers, defaultMinPassengers) }
func (c *TuningConfig) GetMaxPassengers() int { return i(c.MaxPassengers, defaultMaxPassengers) }

func (c *TuningConfig) GetMaxDistance() float64 { return f64(c.MaxDistance, defaultMaxDistance) }
func (c *TuningConfig) GetMaxFare() float64     { return f64(c.MaxFare, defaultMaxFare) }

// GetMaxDuration returns the trip duration cap. Bad values are rejected by
// Validate, so this only falls back for the built-in default.
func (c *TuningConfig) GetMaxDuration() time.Duration {
	if c.MaxDuration == nil {
		return defaultMaxDuration
	}
	d, err := time.ParseDuration(*c.MaxDuration)
	if err != nil {
		return defaultMaxDuration
	}
	return d
}

func (c *TuningConfig) GetSampleFraction() float64 {
	return f64(c.SampleFraction, defaultSampleFraction)
}

func (c *TuningConfig) GetSeed() int64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return defaultSeed
}

func (c *TuningConfig) GetClusters() int      { return i(c.Clusters, defaultClusters) }
func (c *TuningConfig) GetMaxIterations() int { return i(c.MaxIterations, defaultMaxIterations) }
func (c *TuningConfig) GetTolerance() float64 { return f64(c.Tolerance, defaultTolerance) }

func f64(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func i(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}
