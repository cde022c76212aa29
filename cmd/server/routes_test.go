package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/analyzer"
	"github.com/modelmux/modelmux/internal/benchmark"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/internal/registry"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/internal/selection"
	"github.com/modelmux/modelmux/pkg/types"
)

type echoAdapter struct {
	name string
}

func (a *echoAdapter) Name() string                    { return a.name }
func (a *echoAdapter) Capabilities() []types.Capability { return []types.Capability{types.CapabilityText} }
func (a *echoAdapter) IsAvailable() bool               { return true }

func (a *echoAdapter) SendMessage(ctx context.Context, model, text string) (*types.ChatResponse, error) {
	return &types.ChatResponse{
		Model: model,
		Choices: []types.Choice{{
			Message: types.ChatMessage{Role: "assistant", Content: "echo: " + text},
		}},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()

	reg := registry.New(nil)
	reg.RefreshText([]benchmark.TextModelSpec{{
		Provider:    "openai",
		Name:        "gpt-4o",
		Evaluations: map[string]float64{"general_intelligence": 0.9, "coding": 0.8, "reasoning": 0.85},
		Price:       4.0,
	}})
	reg.SetCredentials("openai", true)

	adapters := provider.NewRegistry()
	adapters.SetDefaultFactory(func(cfg provider.Config) (provider.Adapter, error) {
		return &echoAdapter{name: cfg.Name}, nil
	})
	_, err := adapters.Create(provider.Config{Name: "openai", APIKey: "sk-test"})
	require.NoError(t, err)

	an := analyzer.New(nil, 0, nil)
	engine := selection.NewEngine(selection.StrategyCheapest, false, nil, nil)
	brk := breaker.New(reg, breaker.Config{}, nil)
	rt := router.New(reg, an, engine, brk, adapters, router.Config{}, nil)

	cfg := config.DefaultConfig()
	h := newHandler(rt, reg, logger())
	return httptest.NewServer(buildMux(cfg, h)), reg
}

func logger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestChatCompletions(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	body := `{"messages":[{"role":"user","content":"write a haiku"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out types.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "echo: write a haiku", out.Text())
	assert.Equal(t, "openai", out.Provider)
}

func TestChatCompletions_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	for name, body := range map[string]string{
		"malformed json":  `{not json`,
		"no user content": `{"messages":[{"role":"system","content":"be terse"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListModels(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Object string       `json:"object"`
		Data   []modelEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "list", out.Object)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "openai:gpt-4o", out.Data[0].ID)
	assert.Equal(t, "text", out.Data[0].Capability)
	assert.True(t, out.Data[0].Available)
}

func TestResetModel(t *testing.T) {
	srv, _ := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/admin/models/openai/gpt-4o/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/admin/models/openai/no-such-model/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv, reg := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// An empty registry is not ready.
	reg.RefreshText(nil)
	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
