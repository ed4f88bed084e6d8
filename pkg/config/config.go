// Package config loads the brenda command configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is read when no path is given and BRENDA_CONFIG is unset.
	DefaultPath = "brenda.yaml"

	// EnvPath names the environment variable that overrides DefaultPath.
	EnvPath = "BRENDA_CONFIG"
)

// Config holds the settings shared by the brenda subcommands.
type Config struct {
	Input       string         `yaml:"input"`
	Library     string         `yaml:"library"`
	JSONLines   string         `yaml:"jsonl,omitempty"`
	Workers     int            `yaml:"workers"`
	LogLevel    string         `yaml:"log_level"`
	MetricsFile string         `yaml:"metrics_file,omitempty"`
	Taxonomy    TaxonomyConfig `yaml:"taxonomy"`
}

// TaxonomyConfig locates the NCBI names table and the lookup cache.
type TaxonomyConfig struct {
	Names    string        `yaml:"names,omitempty"`
	Cache    string        `yaml:"cache,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Input:    "brenda_download.txt",
		Library:  "brenda-library",
		Workers:  1,
		LogLevel: "info",
		Taxonomy: TaxonomyConfig{
			CacheTTL: 30 * 24 * time.Hour,
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty
// path falls back to $BRENDA_CONFIG, then DefaultPath; a missing default
// file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Taxonomy.CacheTTL < 0 {
		return fmt.Errorf("taxonomy.cache_ttl must not be negative")
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
