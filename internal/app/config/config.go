package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

type Config struct {
	Queue    QueueConfig    `yaml:"queue"`
	Postgres PostgresConfig `yaml:"postgres"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type QueueConfig struct {
	MaxBatchSize  int      `yaml:"max_batch_size"`
	FlushInterval Duration `yaml:"flush_interval"`
}

type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Duration accepts human-readable YAML values like "250ms" or "30s".
// Bare integers are read as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or integer milliseconds")
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Queue.MaxBatchSize == 0 {
		c.Queue.MaxBatchSize = 50
	}
	if c.Queue.FlushInterval == 0 {
		c.Queue.FlushInterval = Duration(30 * time.Second)
	}
	if c.Postgres.Table == "" {
		c.Postgres.Table = "models"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	if c.Queue.MaxBatchSize < 0 {
		return fmt.Errorf("queue.max_batch_size must be positive")
	}
	if c.Queue.FlushInterval < 0 {
		return fmt.Errorf("queue.flush_interval must be positive")
	}
	if c.Postgres.ConnString == "" {
		return fmt.Errorf("postgres.conn_string is required")
	}
	return nil
}

// Policy converts the queue section into the ports form used by the worker.
func (c *Config) Policy() ports.Policy {
	return ports.Policy{
		MaxBatchSize:  c.Queue.MaxBatchSize,
		FlushInterval: time.Duration(c.Queue.FlushInterval),
	}
}
