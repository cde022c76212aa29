package benchmark

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// APIKeyHeader is the static key header expected by the benchmark source.
	APIKeyHeader = "x-api-key"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 16 << 20
)

// ClientConfig configures the benchmark source client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches benchmark data categories over HTTP.
// The source is read-only; each category endpoint returns a list of items
// under a "data" envelope.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a benchmark source client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchText retrieves the LLM benchmark category.
func (c *Client) FetchText(ctx context.Context) ([]TextModelSpec, error) {
	var envelope listResponse[textModelItem]
	if err := c.get(ctx, CategoryLLMs, &envelope); err != nil {
		return nil, err
	}
	specs := make([]TextModelSpec, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.Name == "" || item.ModelCreator.Name == "" {
			continue
		}
		specs = append(specs, item.toSpec())
	}
	return specs, nil
}

// FetchMedia retrieves one media benchmark category.
func (c *Client) FetchMedia(ctx context.Context, category Category) ([]MediaModelSpec, error) {
	var envelope listResponse[mediaModelItem]
	if err := c.get(ctx, category, &envelope); err != nil {
		return nil, err
	}
	specs := make([]MediaModelSpec, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.Name == "" || item.ModelCreator.Name == "" {
			continue
		}
		specs = append(specs, item.toSpec(category))
	}
	return specs, nil
}

func (c *Client) get(ctx context.Context, category Category, out any) error {
	url := fmt.Sprintf("%s/data/%s", c.baseURL, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", category, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", category, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d: %s", category, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", category, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
