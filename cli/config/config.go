// Package config loads intel.yaml and resolves environment overrides.
//
// Precedence, highest first: CLI flags, environment (INTEL_API_URL,
// INTEL_USE_MOCK_API, also read from .env), config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pithecene-io/intel/client"
	"github.com/pithecene-io/intel/lode"
)

// Default dashboard polling intervals.
const (
	DefaultHealthInterval = 30 * time.Second
	DefaultStatsInterval  = 60 * time.Second
)

// Config represents an intel.yaml configuration file.
// All values are optional.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Storage   StorageConfig   `yaml:"storage"`
	Adapter   AdapterConfig   `yaml:"adapter"`
}

// APIConfig configures the agent backend.
type APIConfig struct {
	URL     string            `yaml:"url"`
	Mock    bool              `yaml:"mock"`
	Timeout Duration          `yaml:"timeout"`
	Retries *int              `yaml:"retries,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DashboardConfig configures dashboard polling.
type DashboardConfig struct {
	HealthInterval Duration `yaml:"health_interval"`
	StatsInterval  Duration `yaml:"stats_interval"`
}

// StorageConfig configures the transcript archive. An empty backend
// disables archiving.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig configures mission completion notifications. An empty type
// disables them.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

// ApplyDefaults fills every unset value with its built-in default.
func (c *Config) ApplyDefaults() {
	if c.API.URL == "" {
		c.API.URL = client.DefaultBaseURL
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout.Duration = client.DefaultTimeout
	}
	if c.API.Retries == nil {
		retries := client.DefaultRetries
		c.API.Retries = &retries
	}
	if c.Dashboard.HealthInterval.Duration == 0 {
		c.Dashboard.HealthInterval.Duration = DefaultHealthInterval
	}
	if c.Dashboard.StatsInterval.Duration == 0 {
		c.Dashboard.StatsInterval.Duration = DefaultStatsInterval
	}
	if c.Storage.Dataset == "" {
		c.Storage.Dataset = lode.DefaultDataset
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.url %q must be an http(s) URL", c.API.URL))
	}
	if c.API.Retries != nil && *c.API.Retries < 0 {
		errs = append(errs, fmt.Errorf("api.retries must be >= 0, got %d", *c.API.Retries))
	}

	switch c.Storage.Backend {
	case "":
	case "fs", "s3":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be fs or s3", c.Storage.Backend))
	}

	switch c.Adapter.Type {
	case "":
	case "webhook", "redis":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url is required for the %s adapter", c.Adapter.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.type %q must be webhook or redis", c.Adapter.Type))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = append(errs, fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries))
	}

	return errors.Join(errs...)
}
