package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/pkg/types"
)

type stubAdapter struct {
	name string
}

func (s stubAdapter) Name() string                    { return s.name }
func (s stubAdapter) Capabilities() []types.Capability { return []types.Capability{types.CapabilityText} }
func (s stubAdapter) IsAvailable() bool               { return true }
func (s stubAdapter) SendMessage(ctx context.Context, model, text string) (*types.ChatResponse, error) {
	return &types.ChatResponse{
		Model:   model,
		Choices: []types.Choice{{Message: types.ChatMessage{Role: "assistant", Content: "ok"}}},
	}, nil
}

func TestRegistry_DedicatedFactoryWins(t *testing.T) {
	r := NewRegistry()
	r.SetDefaultFactory(func(cfg Config) (Adapter, error) {
		return stubAdapter{name: "default-" + cfg.Name}, nil
	})
	r.RegisterFactory("special", func(cfg Config) (Adapter, error) {
		return stubAdapter{name: "special"}, nil
	})

	a, err := r.Create(Config{Name: "special"})
	require.NoError(t, err)
	assert.Equal(t, "special", a.Name())

	b, err := r.Create(Config{Name: "other"})
	require.NoError(t, err)
	assert.Equal(t, "default-other", b.Name())
}

func TestRegistry_NoFactory(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create(Config{Name: "unknown"})
	assert.Error(t, err)
}

func TestRegistry_GetAndNames(t *testing.T) {
	r := NewRegistry()
	r.SetDefaultFactory(func(cfg Config) (Adapter, error) {
		return stubAdapter{name: cfg.Name}, nil
	})

	_, err := r.Create(Config{Name: "openai"})
	require.NoError(t, err)

	a, ok := r.Get("openai")
	require.True(t, ok)
	assert.Equal(t, "openai", a.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"openai"}, r.Names())
}

func TestAdapterCompleter(t *testing.T) {
	c := AdapterCompleter{Adapter: stubAdapter{name: "openai"}, Model: "gpt-4o-mini"}
	out, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	empty := AdapterCompleter{}
	_, err = empty.Complete(context.Background(), "x")
	assert.Error(t, err)
}
