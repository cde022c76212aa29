// Package provider defines the adapter contract between the router core
// and vendor-specific wire adapters, and the registry that resolves
// adapters by provider name.
package provider

import (
	"context"

	"github.com/modelmux/modelmux/pkg/types"
)

// Adapter is the capability contract every provider adapter implements.
// The execution loop depends only on SendMessage plus the availability and
// capability queries; richer media operations are optional extensions.
type Adapter interface {
	// Name returns the provider identifier (e.g. "openai", "groq").
	Name() string

	// Capabilities lists the task modalities this adapter can serve.
	Capabilities() []types.Capability

	// IsAvailable reports whether the adapter is configured well enough
	// to attempt requests (credentials present, endpoint known).
	IsAvailable() bool

	// SendMessage executes a single text completion against the named
	// model. Failures must be mapped to pkg/errors.ProviderError so the
	// circuit breaker can classify them.
	SendMessage(ctx context.Context, model, text string) (*types.ChatResponse, error)
}

// ImageGenerator is an optional extension for image-capable adapters.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
	EditImage(ctx context.Context, model string, image []byte, prompt string) ([]byte, error)
}

// SpeechSynthesizer is an optional extension for text-to-speech adapters.
type SpeechSynthesizer interface {
	TextToSpeech(ctx context.Context, model, text string) ([]byte, error)
}

// Transcriber is an optional extension for speech-to-text adapters.
type Transcriber interface {
	SpeechToText(ctx context.Context, model string, audio []byte) (string, error)
}

// Embedder is an optional extension for embedding-capable adapters.
type Embedder interface {
	EmbedText(ctx context.Context, model, text string) ([]float64, error)
}

// Config carries everything needed to construct an adapter.
type Config struct {
	Name    string
	APIKey  string
	BaseURL string
}

// Factory creates adapter instances from configuration.
type Factory func(cfg Config) (Adapter, error)
