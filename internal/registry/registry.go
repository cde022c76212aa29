// Package registry implements the in-memory metric registry: the canonical
// provider/model mapping for both model families, refreshed from the
// benchmark source while preserving usage and health history.
package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/benchmark"
	"github.com/modelmux/modelmux/internal/metrics"
	"github.com/modelmux/modelmux/pkg/types"
)

// textProvider owns the text-family models of one provider.
type textProvider struct {
	name           string
	hasCredentials bool
	lastUsed       time.Time
	models         map[string]*types.TextModel
}

// mediaProvider owns the media-family models of one provider.
type mediaProvider struct {
	name           string
	hasCredentials bool
	lastUsed       time.Time
	models         map[string]*types.MediaModel
}

// Registry holds provider -> model -> metric records for the two model
// families. All mutations are synchronous and immediately visible to
// subsequent reads; a single RWMutex serializes read-modify-write of
// health and usage fields across concurrent requests.
type Registry struct {
	mu     sync.RWMutex
	text   map[string]*textProvider
	media  map[string]*mediaProvider
	logger *slog.Logger

	// nowFn is swapped in tests.
	nowFn func() time.Time
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		text:   make(map[string]*textProvider),
		media:  make(map[string]*mediaProvider),
		logger: logger,
		nowFn:  time.Now,
	}
}

// RefreshText re-synchronizes the text family to the given snapshot.
// Benchmark-derived fields are overwritten; health and last-used history
// are preserved. Models absent from the snapshot are purged unless they
// have been used; providers left empty are removed. Idempotent.
func (r *Registry) RefreshText(specs []benchmark.TextModelSpec) {
	now := r.nowFn()

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[types.ModelKey]struct{}, len(specs))
	for _, spec := range specs {
		key := types.ModelKey{Provider: spec.Provider, Name: spec.Name}
		seen[key] = struct{}{}

		prov, ok := r.text[spec.Provider]
		if !ok {
			prov = &textProvider{
				name:   spec.Provider,
				models: make(map[string]*types.TextModel),
			}
			r.text[spec.Provider] = prov
		}

		model, ok := prov.models[spec.Name]
		if !ok {
			model = &types.TextModel{ModelBase: types.ModelBase{
				Name:     spec.Name,
				Provider: spec.Provider,
			}}
			prov.models[spec.Name] = model
		}

		model.Evals = spec.Evaluations
		model.PriceUSD = spec.Price
		model.LatencySecs = spec.Latency
		model.InputTokenPrice = spec.InputTokenPrice
		model.OutputTokenPrice = spec.OutputTokenPrice
		model.OutputSpeed = spec.OutputSpeed
		model.TimeToFirstToken = spec.TimeToFirstToken
		model.RefreshedAt = now
	}

	for name, prov := range r.text {
		for modelName, model := range prov.models {
			key := types.ModelKey{Provider: name, Name: modelName}
			if _, ok := seen[key]; ok {
				continue
			}
			// Models the caller has exercised survive refresh purges.
			if !model.LastUsed.IsZero() {
				continue
			}
			delete(prov.models, modelName)
		}
		if len(prov.models) == 0 {
			delete(r.text, name)
		}
	}

	count := 0
	for _, prov := range r.text {
		count += len(prov.models)
	}
	metrics.RegistryModels.WithLabelValues("text").Set(float64(count))
}

// RefreshMedia re-synchronizes the media family to the given snapshot,
// with the same preservation and purge rules as RefreshText.
func (r *Registry) RefreshMedia(specs []benchmark.MediaModelSpec) {
	now := r.nowFn()

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[types.ModelKey]struct{}, len(specs))
	for _, spec := range specs {
		key := types.ModelKey{Provider: spec.Provider, Name: spec.Name}
		seen[key] = struct{}{}

		prov, ok := r.media[spec.Provider]
		if !ok {
			prov = &mediaProvider{
				name:   spec.Provider,
				models: make(map[string]*types.MediaModel),
			}
			r.media[spec.Provider] = prov
		}

		model, ok := prov.models[spec.Name]
		if !ok {
			model = &types.MediaModel{ModelBase: types.ModelBase{
				Name:     spec.Name,
				Provider: spec.Provider,
			}}
			prov.models[spec.Name] = model
		}

		model.Elo = spec.Elo
		model.Rank = spec.Rank
		model.CI95 = spec.CI95
		model.Subtype = spec.Subtype
		model.Categories = spec.Categories
		model.PriceUSD = spec.Price
		// Elo doubles as the evaluation score so media models rank with
		// the same strategy code as text models.
		model.Evals = map[string]float64{metricForSubtype(spec.Subtype): spec.Elo}
		model.RefreshedAt = now
	}

	for name, prov := range r.media {
		for modelName, model := range prov.models {
			key := types.ModelKey{Provider: name, Name: modelName}
			if _, ok := seen[key]; ok {
				continue
			}
			if !model.LastUsed.IsZero() {
				continue
			}
			delete(prov.models, modelName)
		}
		if len(prov.models) == 0 {
			delete(r.media, name)
		}
	}

	count := 0
	for _, prov := range r.media {
		count += len(prov.models)
	}
	metrics.RegistryModels.WithLabelValues("media").Set(float64(count))
}

func metricForSubtype(c types.Capability) string {
	switch c {
	case types.CapabilityImage:
		return "image_generation"
	case types.CapabilityAudio:
		return "speech_synthesis"
	case types.CapabilityVideo:
		return "video_generation"
	default:
		return "general_intelligence"
	}
}

// RecordUsage sets last-used to now on the named model and its provider in
// whichever family holds the key. Absent models are a silent no-op.
func (r *Registry) RecordUsage(provider, model string) {
	now := r.nowFn()

	r.mu.Lock()
	defer r.mu.Unlock()

	if prov, ok := r.text[provider]; ok {
		if m, ok := prov.models[model]; ok {
			m.LastUsed = now
			prov.lastUsed = now
			return
		}
	}
	if prov, ok := r.media[provider]; ok {
		if m, ok := prov.models[model]; ok {
			m.LastUsed = now
			prov.lastUsed = now
		}
	}
}

// SetCredentials flips the credential flag on the provider in both
// families. Returns whether any provider record was updated.
func (r *Registry) SetCredentials(provider string, present bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := false
	if prov, ok := r.text[provider]; ok {
		prov.hasCredentials = present
		updated = true
	}
	if prov, ok := r.media[provider]; ok {
		prov.hasCredentials = present
		updated = true
	}
	return updated
}

// RemoveProvider deletes a provider and all its models from both families.
func (r *Registry) RemoveProvider(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, inText := r.text[name]
	_, inMedia := r.media[name]
	delete(r.text, name)
	delete(r.media, name)
	return inText || inMedia
}

// RemoveModel deletes a single model; removing the last model of a
// provider removes the provider itself.
func (r *Registry) RemoveModel(provider, model string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prov, ok := r.text[provider]; ok {
		if _, ok := prov.models[model]; ok {
			delete(prov.models, model)
			if len(prov.models) == 0 {
				delete(r.text, provider)
			}
			return true
		}
	}
	if prov, ok := r.media[provider]; ok {
		if _, ok := prov.models[model]; ok {
			delete(prov.models, model)
			if len(prov.models) == 0 {
				delete(r.media, provider)
			}
			return true
		}
	}
	return false
}

// PurgeStale removes never-used models whose last refresh is older than
// maxAge, and any providers left empty. Returns the number of models
// removed.
func (r *Registry) PurgeStale(maxAge time.Duration) int {
	cutoff := r.nowFn().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for name, prov := range r.text {
		for modelName, model := range prov.models {
			if model.LastUsed.IsZero() && model.RefreshedAt.Before(cutoff) {
				delete(prov.models, modelName)
				purged++
			}
		}
		if len(prov.models) == 0 {
			delete(r.text, name)
		}
	}
	for name, prov := range r.media {
		for modelName, model := range prov.models {
			if model.LastUsed.IsZero() && model.RefreshedAt.Before(cutoff) {
				delete(prov.models, modelName)
				purged++
			}
		}
		if len(prov.models) == 0 {
			delete(r.media, name)
		}
	}
	return purged
}

// Candidates returns a deep-copied snapshot of every model serving the
// given capability, annotated with the provider-level fields selection
// needs. Safe to use without holding registry locks.
func (r *Registry) Candidates(cap types.Capability) []types.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Candidate
	if cap == types.CapabilityText || cap == types.CapabilityEmbedding {
		for _, prov := range r.text {
			for _, model := range prov.models {
				out = append(out, types.Candidate{
					Model:            model.Clone(),
					HasCredentials:   prov.hasCredentials,
					ProviderLastUsed: prov.lastUsed,
				})
			}
		}
		return out
	}

	for _, prov := range r.media {
		for _, model := range prov.models {
			if model.Subtype != cap {
				continue
			}
			out = append(out, types.Candidate{
				Model:            model.Clone(),
				HasCredentials:   prov.hasCredentials,
				ProviderLastUsed: prov.lastUsed,
			})
		}
	}
	return out
}

// UpdateHealth applies fn to the named model's health under the registry
// lock, serializing concurrent read-modify-write so failure counts are
// never lost. Returns false when the model does not exist.
func (r *Registry) UpdateHealth(provider, model string, fn func(*types.Health)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prov, ok := r.text[provider]; ok {
		if m, ok := prov.models[model]; ok {
			fn(&m.HealthState)
			return true
		}
	}
	if prov, ok := r.media[provider]; ok {
		if m, ok := prov.models[model]; ok {
			fn(&m.HealthState)
			return true
		}
	}
	return false
}

// Health returns the current health of the named model.
func (r *Registry) Health(provider, model string) (types.Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if prov, ok := r.text[provider]; ok {
		if m, ok := prov.models[model]; ok {
			return m.HealthState, true
		}
	}
	if prov, ok := r.media[provider]; ok {
		if m, ok := prov.models[model]; ok {
			return m.HealthState, true
		}
	}
	return types.Health{}, false
}

// Len returns the model counts of the text and media families.
func (r *Registry) Len() (text, media int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, prov := range r.text {
		text += len(prov.models)
	}
	for _, prov := range r.media {
		media += len(prov.models)
	}
	return text, media
}

// Providers returns the provider names present in either family.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.text)+len(r.media))
	var names []string
	for name := range r.text {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	for name := range r.media {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
