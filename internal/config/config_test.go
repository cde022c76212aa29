package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  port: 9090
benchmark:
  base_url: https://benchmarks.example.com/v2
  api_key: test-key
  refresh_interval: 30m
routing:
  strategy: cheapest
  rotation: true
analyzer:
  provider: openai
  model: gpt-4o-mini
providers:
  - name: openai
    api_key: sk-abc
  - name: groq
    api_key: gsk-def
  - name: dry
`

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://benchmarks.example.com/v2", cfg.Benchmark.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Benchmark.RefreshInterval)
	assert.Equal(t, "cheapest", cfg.Routing.Strategy)
	assert.True(t, cfg.Routing.Rotation)
	assert.Equal(t, "gpt-4o-mini", cfg.Analyzer.Model)

	// Defaults fill unspecified sections.
	assert.True(t, cfg.Benchmark.StaleCleanup)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BENCH_KEY", "secret-from-env")
	cfg, err := LoadFromFile(writeConfig(t, `
benchmark:
  base_url: https://benchmarks.example.com
  api_key: ${TEST_BENCH_KEY}
providers:
  - name: openai
    api_key: sk-abc
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Benchmark.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults with base url",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "port",
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Benchmark.BaseURL = "" },
			wantErr: "base_url",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Routing.Strategy = "fastest" },
			wantErr: "strategy",
		},
		{
			name: "duplicate provider",
			mutate: func(c *Config) {
				c.Providers = []ProviderCreds{{Name: "openai"}, {Name: "openai"}}
			},
			wantErr: "twice",
		},
		{
			name: "analyzer provider without model",
			mutate: func(c *Config) {
				c.Analyzer.Provider = "openai"
				c.Analyzer.Model = ""
			},
			wantErr: "analyzer.model",
		},
		{
			name: "stale cleanup without max age",
			mutate: func(c *Config) {
				c.Benchmark.StaleCleanup = true
				c.Benchmark.MaxDataAge = 0
			},
			wantErr: "max_data_age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Benchmark.BaseURL = "https://benchmarks.example.com"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCredentialedProviders(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)
	// "dry" has no api_key and must be excluded.
	assert.ElementsMatch(t, []string{"openai", "groq"}, cfg.CredentialedProviders())
}

func TestManager_ReloadOnChange(t *testing.T) {
	path := writeConfig(t, validConfig)

	m, err := NewManager(path, nil)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "cheapest", m.Get().Routing.Strategy)

	changed := make(chan *Config, 1)
	m.OnChange(func(c *Config) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Watch(ctx))

	updated := []byte(`
benchmark:
  base_url: https://benchmarks.example.com/v2
routing:
  strategy: most-accurate
providers:
  - name: openai
    api_key: sk-abc
`)
	require.NoError(t, os.WriteFile(path, updated, 0o600))

	select {
	case cfg := <-changed:
		assert.Equal(t, "most-accurate", cfg.Routing.Strategy)
		assert.Equal(t, "most-accurate", m.Get().Routing.Strategy)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload did not fire")
	}
}

func TestManager_KeepsConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, validConfig)

	m, err := NewManager(path, nil)
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("routing: ["), 0o600))

	// The watcher debounce is 500ms; give the reload a moment, then the
	// old config must still be served.
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, "cheapest", m.Get().Routing.Strategy)
}
