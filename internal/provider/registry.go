package provider

import (
	"fmt"
	"sync"
)

// Registry resolves provider adapters by name. Adapters for providers
// without a dedicated factory fall back to the registered default factory
// (the generic OpenAI-compatible adapter).
type Registry struct {
	mu             sync.RWMutex
	factories      map[string]Factory
	defaultFactory Factory
	adapters       map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		adapters:  make(map[string]Adapter),
	}
}

// RegisterFactory registers a factory for a specific provider name.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// SetDefaultFactory registers the fallback factory used for providers
// without a dedicated one.
func (r *Registry) SetDefaultFactory(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultFactory = factory
}

// Create instantiates and registers an adapter for the given config.
func (r *Registry) Create(cfg Config) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Name]
	if !ok {
		factory = r.defaultFactory
	}
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("no adapter factory for provider %q", cfg.Name)
	}

	adapter, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create adapter %s: %w", cfg.Name, err)
	}

	r.mu.Lock()
	r.adapters[cfg.Name] = adapter
	r.mu.Unlock()
	return adapter, nil
}

// Get returns the adapter registered for a provider name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered adapter names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
