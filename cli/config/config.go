package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/trolley/api"
)

// Config represents a trolley.yaml configuration file.
// All values are optional and act as defaults for trolley CLI flags.
// CLI flags always override config values.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// APIConfig holds request client defaults from the config file.
type APIConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout,omitempty"`
	Retries   *int     `yaml:"retries,omitempty"`
	BaseDelay Duration `yaml:"base_delay,omitempty"`
}

// StorageConfig selects and configures the snapshot backend.
type StorageConfig struct {
	// Backend is one of: file (default), redis, s3.
	Backend string `yaml:"backend"`
	// Path is the snapshot directory for the file backend.
	Path string `yaml:"path"`
	// URL is the Redis connection URL for the redis backend.
	URL string `yaml:"url"`
	// Prefix namespaces keys in shared redis/s3 storage.
	Prefix string `yaml:"prefix"`
	// Bucket, Region, Endpoint configure the s3 backend.
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds cart event adapter defaults from the config file.
type AdapterConfig struct {
	// Type is one of: webhook, redis. Empty disables event publishing.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
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
	d.Duration = parsed
	return nil
}

// ClientConfig converts the api section into a request client config.
// Zero values are left for the client to default.
func (c *Config) ClientConfig() api.Config {
	cfg := api.Config{
		BaseURL:   c.API.BaseURL,
		Timeout:   c.API.Timeout.Duration,
		BaseDelay: c.API.BaseDelay.Duration,
	}
	if c.API.Retries != nil {
		cfg.Retries = *c.API.Retries
	} else {
		cfg.Retries = api.DefaultRetries
	}
	return cfg
}

// StorageBackend returns the configured backend name, defaulting to file.
func (c *Config) StorageBackend() string {
	if c.Storage.Backend == "" {
		return "file"
	}
	return c.Storage.Backend
}
