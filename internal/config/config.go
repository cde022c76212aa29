// Package config provides YAML configuration with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for
// zero-downtime updates.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete router configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Routing   RoutingConfig   `yaml:"routing"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Providers []ProviderCreds `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// BenchmarkConfig points at the external benchmark data source.
type BenchmarkConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// MaxDataAge is the maximum age before a never-used model counts as
	// stale. Only enforced when StaleCleanup is on.
	MaxDataAge   time.Duration `yaml:"max_data_age"`
	StaleCleanup bool          `yaml:"stale_cleanup"`
}

// RoutingConfig selects the strategy and the rotation pass.
// Strategy is one of cheapest, most-accurate, balanced; balanced is the
// default and the three are mutually exclusive.
type RoutingConfig struct {
	Strategy string `yaml:"strategy"`
	Rotation bool   `yaml:"rotation"`
}

// AnalyzerConfig names the model used for delegated classification and
// ranking calls.
type AnalyzerConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ProviderCreds is one provider credential entry. Presence of an API key
// flips has_credentials on the registry side.
type ProviderCreds struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Insecure    bool    `yaml:"insecure"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Benchmark: BenchmarkConfig{
			RefreshInterval: time.Hour,
			MaxDataAge:      7 * 24 * time.Hour,
			StaleCleanup:    true,
		},
		Routing: RoutingConfig{
			Strategy: "balanced",
			Rotation: false,
		},
		Analyzer: AnalyzerConfig{
			CacheTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "modelmux",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Benchmark.BaseURL == "" {
		return fmt.Errorf("benchmark.base_url is required")
	}
	if c.Benchmark.RefreshInterval < 0 {
		return fmt.Errorf("benchmark.refresh_interval cannot be negative")
	}
	if c.Benchmark.StaleCleanup && c.Benchmark.MaxDataAge <= 0 {
		return fmt.Errorf("benchmark.max_data_age must be positive when stale_cleanup is on")
	}

	switch c.Routing.Strategy {
	case "", "cheapest", "most-accurate", "balanced":
	default:
		return fmt.Errorf("unknown routing.strategy: %q", c.Routing.Strategy)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("provider %q configured twice", p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	if c.Analyzer.Provider != "" && c.Analyzer.Model == "" {
		return fmt.Errorf("analyzer.model is required when analyzer.provider is set")
	}

	return nil
}

// CredentialedProviders returns the names of providers with an API key.
func (c *Config) CredentialedProviders() []string {
	var names []string
	for _, p := range c.Providers {
		if p.APIKey != "" {
			names = append(names, p.Name)
		}
	}
	return names
}
