package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a trellis directory.
type Config struct {
	Version int `yaml:"version"`

	// Actor is the default user name commands act as when --as is not
	// given. Every mutating command is authorized against this user.
	Actor string `yaml:"actor,omitempty"`

	// DeletePolicy controls task deletion when dependents exist:
	// "reject" (default) refuses, "cascade" drops the edges.
	DeletePolicy string `yaml:"delete_policy,omitempty"`

	// CheckParallel is the worker count for `trellis check`.
	// 0 means the default of 4.
	CheckParallel int `yaml:"check_parallel,omitempty"`
}

// EffectiveDeletePolicy returns the delete policy, defaulted.
func (c *Config) EffectiveDeletePolicy() string {
	if c.DeletePolicy == "" {
		return "reject"
	}
	return c.DeletePolicy
}

// EffectiveCheckParallel returns the checker worker count, defaulted.
func (c *Config) EffectiveCheckParallel() int {
	if c.CheckParallel > 0 {
		return c.CheckParallel
	}
	return 4
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a starter config.
func DefaultConfig() *Config {
	return &Config{
		Version:      1,
		DeletePolicy: "reject",
	}
}

func (c *Config) validate() error {
	switch c.DeletePolicy {
	case "", "reject", "cascade":
	default:
		return fmt.Errorf("delete_policy must be 'reject' or 'cascade', got %q", c.DeletePolicy)
	}
	if c.CheckParallel < 0 {
		return fmt.Errorf("check_parallel must be >= 0, got %d", c.CheckParallel)
	}
	return nil
}
