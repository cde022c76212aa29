package main

import (
	"log/slog"
	"time"

	"github.com/modelmux/modelmux/internal/benchmark"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/internal/registry"
)

// applyProviders builds adapters from the provider credential entries and
// flips has_credentials on the metric registry. Called at startup and on
// every config reload.
func applyProviders(cfg *config.Config, adapters *provider.Registry, reg *registry.Registry, logger *slog.Logger) {
	configured := make(map[string]bool, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		configured[pc.Name] = pc.APIKey != ""

		if _, err := adapters.Create(provider.Config{
			Name:    pc.Name,
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
		}); err != nil {
			logger.Error("failed to create provider adapter", "name", pc.Name, "error", err)
			continue
		}
		reg.SetCredentials(pc.Name, pc.APIKey != "")
	}

	// Providers dropped from config lose their credential flag.
	for _, name := range reg.Providers() {
		if _, ok := configured[name]; !ok {
			reg.SetCredentials(name, false)
		}
	}
}

// credentialedSink re-applies configured credentials after every benchmark
// sync. A refresh can introduce providers the registry has never seen, and
// those records start without the credential flag.
type credentialedSink struct {
	*registry.Registry
	creds func() *config.Config
}

func (s *credentialedSink) RefreshText(specs []benchmark.TextModelSpec) {
	s.Registry.RefreshText(specs)
	s.applyCreds()
}

func (s *credentialedSink) RefreshMedia(specs []benchmark.MediaModelSpec) {
	s.Registry.RefreshMedia(specs)
	s.applyCreds()
}

func (s *credentialedSink) PurgeStale(maxAge time.Duration) int {
	return s.Registry.PurgeStale(maxAge)
}

func (s *credentialedSink) applyCreds() {
	for _, pc := range s.creds().Providers {
		if pc.APIKey != "" {
			s.Registry.SetCredentials(pc.Name, true)
		}
	}
}
