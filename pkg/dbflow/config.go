package dbflow

import (
	"github.com/danielvallecillo77/DBFlow/internal/app/config"
	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects
// can construct or modify it programmatically.
type Config = config.Config

type (
	// QueueConfig holds the flush policy section.
	QueueConfig = config.QueueConfig
	// PostgresConfig configures the default transaction executor.
	PostgresConfig = config.PostgresConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// Duration is the YAML-friendly duration wrapper.
	Duration = config.Duration
	// Policy controls flush thresholds.
	Policy = ports.Policy
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
