// Package types defines the core data model for the adaptive model router:
// benchmark-scored model records, provider health state, and the request
// analysis result that drives selection.
package types

import (
	"fmt"
	"time"
)

// Capability identifies the task modality a model serves.
type Capability string

const (
	CapabilityText      Capability = "text"
	CapabilityImage     Capability = "image"
	CapabilityAudio     Capability = "audio"
	CapabilityVideo     Capability = "video"
	CapabilityEmbedding Capability = "embedding"
)

// Capabilities lists every supported capability tag.
func Capabilities() []Capability {
	return []Capability{
		CapabilityText,
		CapabilityImage,
		CapabilityAudio,
		CapabilityVideo,
		CapabilityEmbedding,
	}
}

// ModelKey uniquely identifies a model within one family.
// Text and media models live in disjoint namespaces, so the same key may
// exist once per family.
type ModelKey struct {
	Provider string
	Name     string
}

func (k ModelKey) String() string {
	return k.Provider + ":" + k.Name
}

// DisabledReason describes why a model is excluded from selection.
type DisabledReason string

const (
	// DisabledNone means the model is selectable.
	DisabledNone DisabledReason = ""
	// DisabledTemporary is set after repeated transient failures and
	// auto-expires once DisabledUntil has passed.
	DisabledTemporary DisabledReason = "temporary"
	// DisabledPermanent is set on credential, authorization, or billing
	// failures. It never expires by time; only a subsequent success or a
	// manual reset clears it.
	DisabledPermanent DisabledReason = "permanent"
)

// Health tracks per-model execution outcomes for the circuit breaker.
type Health struct {
	ConsecutiveFailures int
	LastFailureTime     time.Time
	DisabledReason      DisabledReason
	DisabledUntil       time.Time
}

// Available reports whether the model may be attempted at the given time.
// A temporary disable past its deadline is allowed again even though the
// failure counter has not been reset.
func (h Health) Available(now time.Time) bool {
	switch h.DisabledReason {
	case DisabledPermanent:
		return false
	case DisabledTemporary:
		return now.After(h.DisabledUntil)
	default:
		return true
	}
}

// Model is the closed variant set over text and media model records.
// Only *TextModel and *MediaModel implement it.
type Model interface {
	Key() ModelKey
	Capability() Capability
	// Evaluations maps benchmark metric names to scores in [0,1].
	Evaluations() map[string]float64
	// Price is the blended benchmark price used by selection strategies.
	Price() float64
	// Latency is the benchmark latency figure in seconds.
	Latency() float64
	Health() Health

	sealed()
}

// ModelBase carries the fields shared by both model families.
type ModelBase struct {
	Name        string
	Provider    string
	Evals       map[string]float64
	PriceUSD    float64
	LatencySecs float64

	// HealthState and LastUsed are owned by the registry and never
	// overwritten by benchmark refreshes.
	HealthState Health
	LastUsed    time.Time
	RefreshedAt time.Time
}

func (m *ModelBase) Key() ModelKey                   { return ModelKey{Provider: m.Provider, Name: m.Name} }
func (m *ModelBase) Evaluations() map[string]float64 { return m.Evals }
func (m *ModelBase) Price() float64                  { return m.PriceUSD }
func (m *ModelBase) Latency() float64                { return m.LatencySecs }
func (m *ModelBase) Health() Health                  { return m.HealthState }
func (m *ModelBase) sealed()                         {}

// TextModel is a language model record with token-level pricing and
// throughput figures from the benchmark source.
type TextModel struct {
	ModelBase

	InputTokenPrice  float64
	OutputTokenPrice float64
	// OutputSpeed is the median output throughput in tokens per second.
	OutputSpeed float64
	// TimeToFirstToken is the median TTFT in seconds.
	TimeToFirstToken float64
}

func (m *TextModel) Capability() Capability { return CapabilityText }

// Clone returns a deep copy safe to hand outside the registry lock.
func (m *TextModel) Clone() *TextModel {
	c := *m
	c.Evals = cloneEvals(m.Evals)
	return &c
}

// MediaModel is an image/audio/video model record scored by arena-style
// elo ratings rather than evaluation suites.
type MediaModel struct {
	ModelBase

	Elo  float64
	Rank int
	// CI95 is the benchmark's confidence interval, e.g. "+12/-9".
	CI95 string
	// Subtype is the media capability this model serves.
	Subtype Capability
	// Categories optionally breaks the elo down by content category.
	Categories map[string]float64
}

func (m *MediaModel) Capability() Capability { return m.Subtype }

// Clone returns a deep copy safe to hand outside the registry lock.
func (m *MediaModel) Clone() *MediaModel {
	c := *m
	c.Evals = cloneEvals(m.Evals)
	if m.Categories != nil {
		c.Categories = make(map[string]float64, len(m.Categories))
		for k, v := range m.Categories {
			c.Categories[k] = v
		}
	}
	return &c
}

// Candidate is a read-only selection snapshot of a model plus the
// provider-level fields the filter and rotation passes need.
type Candidate struct {
	Model          Model
	HasCredentials bool
	// ProviderLastUsed is zero when the provider has never served a request.
	ProviderLastUsed time.Time
}

// Key is a convenience accessor for the underlying model key.
func (c Candidate) Key() ModelKey { return c.Model.Key() }

func cloneEvals(evals map[string]float64) map[string]float64 {
	if evals == nil {
		return nil
	}
	out := make(map[string]float64, len(evals))
	for k, v := range evals {
		out[k] = v
	}
	return out
}

// ParseCapability validates a capability tag.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability: %q", s)
}
