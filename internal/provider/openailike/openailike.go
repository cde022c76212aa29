// Package openailike implements a generic adapter for OpenAI-compatible
// chat APIs. Most hosted providers follow OpenAI's wire format with minor
// variations, so this one adapter serves as the default factory for any
// provider without a dedicated implementation.
package openailike

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/modelmux/modelmux/internal/provider"
	pkgerrors "github.com/modelmux/modelmux/pkg/errors"
	"github.com/modelmux/modelmux/pkg/types"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 4 << 10
)

// Adapter is a generic OpenAI-compatible chat adapter.
type Adapter struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an adapter from configuration. Used as the registry's
// default factory.
func New(cfg provider.Config) (provider.Adapter, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return a.name }

// Capabilities reports the modalities this adapter serves.
func (a *Adapter) Capabilities() []types.Capability {
	return []types.Capability{types.CapabilityText}
}

// IsAvailable reports whether the adapter has credentials to attempt calls.
func (a *Adapter) IsAvailable() bool { return a.apiKey != "" }

// errorResponse is the error envelope used by OpenAI-compatible APIs.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// SendMessage executes a single-turn chat completion.
func (a *Adapter) SendMessage(ctx context.Context, model, text string) (*types.ChatResponse, error) {
	reqBody := types.ChatRequest{
		Model:    model,
		Messages: []types.ChatMessage{{Role: "user", Content: text}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := a.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send message to %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.mapError(resp, model)
	}

	var chatResp types.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", a.name, err)
	}
	chatResp.Provider = a.name
	return &chatResp, nil
}

// mapError converts a non-200 response into a classified ProviderError.
func (a *Adapter) mapError(resp *http.Response, model string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(body))
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return pkgerrors.NewStatusError(a.name, model, resp.StatusCode, message)
}
