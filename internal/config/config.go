// Package config loads the YAML configuration used by searchdex example
// programs and embedding applications.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds connection and runtime settings for an application using
// searchdex.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Schema  SchemaConfig  `yaml:"schema"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig holds search store connection settings.
type StoreConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SchemaConfig points at the index schema file.
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
}

// MetricsConfig holds the optional Prometheus endpoint settings. An empty
// Addr disables the endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if len(c.Store.Addrs) == 0 {
		c.Store.Addrs = []string{"localhost:6379"}
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Schema.Path == "" {
		c.Schema.Path = "schema.yaml"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Store.DB < 0 {
		return fmt.Errorf("store.db must not be negative, got %d", c.Store.DB)
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
