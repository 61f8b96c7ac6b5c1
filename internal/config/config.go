// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all contacts harness configuration.
type Config struct {
	Environment Environment `yaml:"environment"`
	Suite       Suite       `yaml:"suite"`
	Fixtures    Fixtures    `yaml:"fixtures"`
	Log         Log         `yaml:"log"`
}

// Environment names where checks run. Developer-machine checks need "DEV".
type Environment struct {
	Name string `yaml:"name"`
}

// Suite holds check execution settings.
type Suite struct {
	Repeat int `yaml:"repeat"` // Repetitions for repeated checks.
}

// Fixtures locates the tabular input files for parameterized checks.
type Fixtures struct {
	Dir     string `yaml:"dir"`     // Local directory searched before the embedded defaults.
	Valid   string `yaml:"valid"`   // Rows the registry must accept.
	Invalid string `yaml:"invalid"` // Rows the registry must reject.
}

// Log holds logger settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Optional rotated log file.
}

// DevEnvironment is the environment name that enables developer-machine checks.
const DevEnvironment = "DEV"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Suite: Suite{
			Repeat: 5,
		},
		Fixtures: Fixtures{
			Dir:     ".contacts/fixtures",
			Valid:   "valid_contacts.csv",
			Invalid: "invalid_contacts.yaml",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Suite.Repeat < 1 {
		return fmt.Errorf("config: suite.repeat must be at least 1, got %d", c.Suite.Repeat)
	}
	if c.Fixtures.Valid == "" {
		return errors.New("config: fixtures.valid cannot be empty")
	}
	if c.Fixtures.Invalid == "" {
		return errors.New("config: fixtures.invalid cannot be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// IsDev reports whether developer-machine checks are enabled.
func (c *Config) IsDev() bool {
	return c.Environment.Name == DevEnvironment
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CONTACTS_ENV (falling back to ENV), CONTACTS_REPEAT,
// CONTACTS_FIXTURES_DIR, CONTACTS_LOG_LEVEL, CONTACTS_LOG_FILE.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CONTACTS_ENV"); v != "" {
		c.Environment.Name = v
	} else if v := os.Getenv("ENV"); v != "" {
		c.Environment.Name = v
	}
	if v := os.Getenv("CONTACTS_REPEAT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_REPEAT %q: %w", v, err)
		}
		c.Suite.Repeat = n
	}
	if v := os.Getenv("CONTACTS_FIXTURES_DIR"); v != "" {
		c.Fixtures.Dir = v
	}
	if v := os.Getenv("CONTACTS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CONTACTS_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Environment *rawEnvironment `yaml:"environment"`
	Suite       *rawSuite       `yaml:"suite"`
	Fixtures    *rawFixtures    `yaml:"fixtures"`
	Log         *rawLog         `yaml:"log"`
}

type rawEnvironment struct {
	Name *string `yaml:"name"`
}

type rawSuite struct {
	Repeat *int `yaml:"repeat"`
}

type rawFixtures struct {
	Dir     *string `yaml:"dir"`
	Valid   *string `yaml:"valid"`
	Invalid *string `yaml:"invalid"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Environment != nil {
		if layer.Environment.Name != nil {
			c.Environment.Name = *layer.Environment.Name
		}
	}
	if layer.Suite != nil {
		if layer.Suite.Repeat != nil {
			c.Suite.Repeat = *layer.Suite.Repeat
		}
	}
	if layer.Fixtures != nil {
		if layer.Fixtures.Dir != nil {
			c.Fixtures.Dir = *layer.Fixtures.Dir
		}
		if layer.Fixtures.Valid != nil {
			c.Fixtures.Valid = *layer.Fixtures.Valid
		}
		if layer.Fixtures.Invalid != nil {
			c.Fixtures.Invalid = *layer.Fixtures.Invalid
		}
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
	}
}
