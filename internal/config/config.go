package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"qms/pathfinder/internal/graph"
)

// Config is the runtime configuration of the pathfinder CLI and service.
type Config struct {
	DBPath            string            `yaml:"db"`
	LogLevel          string            `yaml:"log_level"`
	LogFormat         string            `yaml:"log_format"`
	Durations         map[string]string `yaml:"durations"`
	DefaultDuration   string            `yaml:"default_duration"`
	SnapshotCacheSize int               `yaml:"snapshot_cache_size"`
	PlanConcurrency   int               `yaml:"plan_concurrency"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		SnapshotCacheSize: 8,
		PlanConcurrency:   4,
	}
}

// Load reads .env (if present), then the YAML file at path (or
// $PATHFINDER_CONFIG), then environment overrides. A missing file is only an
// error when path was given explicitly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv("PATHFINDER_CONFIG"))
		explicit = path != ""
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("PATHFINDER_DB")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("PATHFINDER_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("PATHFINDER_LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("PATHFINDER_PLAN_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PATHFINDER_PLAN_CONCURRENCY: %w", err)
		}
		cfg.PlanConcurrency = n
	}

	if cfg.SnapshotCacheSize <= 0 {
		cfg.SnapshotCacheSize = 1
	}
	if cfg.PlanConcurrency <= 0 {
		cfg.PlanConcurrency = 1
	}
	return cfg, nil
}

// Estimator builds the per-type duration table, starting from the defaults
// and applying configured overrides.
func (c *Config) Estimator() (graph.DurationTable, error) {
	table := graph.DefaultDurations()
	if c.DefaultDuration != "" {
		d, err := time.ParseDuration(c.DefaultDuration)
		if err != nil {
			return table, fmt.Errorf("default_duration: %w", err)
		}
		table.Default = d
	}
	for name, raw := range c.Durations {
		t, err := graph.ParseNodeType(name)
		if err != nil {
			return table, fmt.Errorf("durations: %w", err)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return table, fmt.Errorf("durations.%s: %w", name, err)
		}
		table.ByType[t] = d
	}
	return table, nil
}
