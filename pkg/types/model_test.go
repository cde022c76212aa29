package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAvailable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		health Health
		want   bool
	}{
		{"healthy", Health{}, true},
		{"degraded but not disabled", Health{ConsecutiveFailures: 2}, true},
		{"permanent never recovers by time", Health{DisabledReason: DisabledPermanent}, false},
		{
			"temporary within cooldown",
			Health{DisabledReason: DisabledTemporary, DisabledUntil: now.Add(time.Minute)},
			false,
		},
		{
			"temporary past cooldown",
			Health{DisabledReason: DisabledTemporary, DisabledUntil: now.Add(-time.Minute)},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.health.Available(now))
		})
	}
}

func TestModelKeyString(t *testing.T) {
	key := ModelKey{Provider: "openai", Name: "gpt-4o"}
	assert.Equal(t, "openai:gpt-4o", key.String())
}

func TestParseCapability(t *testing.T) {
	for _, c := range Capabilities() {
		got, err := ParseCapability(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCapability("telepathy")
	assert.Error(t, err)
}

func TestTextModelClone(t *testing.T) {
	m := &TextModel{ModelBase: ModelBase{
		Name:     "gpt-4o",
		Provider: "openai",
		Evals:    map[string]float64{"coding": 0.9},
	}}

	c := m.Clone()
	c.Evals["coding"] = 0.1

	assert.Equal(t, 0.9, m.Evals["coding"], "clone must not share the eval map")
	assert.Equal(t, m.Key(), c.Key())
}

func TestMediaModelClone(t *testing.T) {
	m := &MediaModel{
		ModelBase:  ModelBase{Name: "flux-pro", Provider: "bfl"},
		Subtype:    CapabilityImage,
		Categories: map[string]float64{"photorealism": 1120},
	}

	c := m.Clone()
	c.Categories["photorealism"] = 1

	assert.Equal(t, float64(1120), m.Categories["photorealism"])
	assert.Equal(t, CapabilityImage, c.Capability())
}
