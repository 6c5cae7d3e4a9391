// Package config loads the CLI configuration file and simulation scenarios.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
)

// CurrentVersion is the only configuration file version this build reads.
const CurrentVersion = 1

// Default values applied to zero fields.
const (
	DefaultLogLevel = "info"
	DefaultTickRate = 60.0
)

// ErrUnsupportedVersion reports a configuration file written for another version.
var ErrUnsupportedVersion = errors.New("unsupported config version")

var validate = validator.New()

// Config is the animgraph CLI configuration.
type Config struct {
	Version  int    `yaml:"version" validate:"gte=0"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// Workers is the animator worker count. 0 picks NumCPU-1.
	Workers int `yaml:"workers" validate:"gte=0"`
	// MaxInstances caps animator instances. 0 is unlimited.
	MaxInstances int `yaml:"max_instances" validate:"gte=0"`
	// TickRate is the engine tick rate in ticks per second for realtime simulation.
	TickRate float64 `yaml:"tick_rate" validate:"gte=0"`
	// MetricsAddr serves prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	Profiling   bool   `yaml:"profiling"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	c.Version = common.Coalesce(c.Version, CurrentVersion)
	c.LogLevel = common.Coalesce(c.LogLevel, DefaultLogLevel)
	c.TickRate = common.Coalesce(c.TickRate, DefaultTickRate)
}

// Parse decodes and validates a YAML configuration document.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Config: the configuration with defaults applied
//   - error: error if the document is malformed, invalid or of another version
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()
	if c.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, c.Version, CurrentVersion)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Load reads the configuration at path. An empty path returns Default().
//
// Parameters:
//   - path: file path of a YAML configuration, or ""
//
// Returns:
//   - *Config: the configuration
//   - error: error if the file cannot be read or parsed
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
