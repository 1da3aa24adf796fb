// Package config provides the unified configuration for a Ballast load run.
// A single LoadConfig struct replaces ambient globals: destination specs,
// the baseline format name, verification behavior and logging are all
// explicit and passed into the orchestrator.
package config

import (
	"fmt"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/verify"
)

// LoadConfig configures one load run
type LoadConfig struct {
	// Name identifies the load run for logs and reports
	Name string `yaml:"name" json:"name"`

	// BaselineFormat is the representation against which compression
	// ratios are computed, typically the uncompressed one
	BaselineFormat string `yaml:"baseline_format" json:"baseline_format"`

	// Parallel enables concurrent writes to independent destinations.
	// Writes to the same destination are always serialized.
	Parallel bool `yaml:"parallel" json:"parallel"`

	// Verification controls sampling behavior
	Verification verify.Config `yaml:"verification" json:"verification"`

	// Logging configures the zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics toggles prometheus collection
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Destinations lists the target representations for each dataset
	Destinations []adapter.DestinationSpec `yaml:"destinations" json:"destinations"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// MetricsConfig configures prometheus metrics
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// NewLoadConfig creates a LoadConfig with sensible defaults
func NewLoadConfig(name string) *LoadConfig {
	return &LoadConfig{
		Name:           name,
		BaselineFormat: "csv",
		Verification:   verify.DefaultConfig(),
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks the configuration for correctness
func (c *LoadConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.BaselineFormat == "" {
		return fmt.Errorf("baseline_format is required")
	}
	if c.Verification.SampleSize < 0 {
		return fmt.Errorf("verification.sample_size cannot be negative")
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}

	seen := make(map[string]struct{}, len(c.Destinations))
	for i, dest := range c.Destinations {
		if dest.Format == "" {
			return fmt.Errorf("destinations[%d]: format is required", i)
		}
		if dest.Path == "" && dest.Table == "" {
			return fmt.Errorf("destinations[%d]: path or table is required", i)
		}
		id := dest.Identity()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("destinations[%d]: duplicate destination %s", i, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}
