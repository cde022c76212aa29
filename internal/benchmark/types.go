// Package benchmark provides the client for the external benchmark data
// source and the snapshot types the registry synchronizes from.
package benchmark

import (
	"time"

	"github.com/modelmux/modelmux/pkg/types"
)

// Category identifies one benchmark data category.
type Category string

const (
	CategoryLLMs         Category = "llms"
	CategoryTextToImage  Category = "text-to-image"
	CategoryImageEditing Category = "image-editing"
	CategoryTextToSpeech Category = "text-to-speech"
	CategoryTextToVideo  Category = "text-to-video"
	CategoryImageToVideo Category = "image-to-video"
)

// MediaCategories lists the five media benchmark categories.
func MediaCategories() []Category {
	return []Category{
		CategoryTextToImage,
		CategoryImageEditing,
		CategoryTextToSpeech,
		CategoryTextToVideo,
		CategoryImageToVideo,
	}
}

// CapabilityFor maps a media category to the capability its models serve.
func CapabilityFor(c Category) types.Capability {
	switch c {
	case CategoryTextToImage, CategoryImageEditing:
		return types.CapabilityImage
	case CategoryTextToSpeech:
		return types.CapabilityAudio
	case CategoryTextToVideo, CategoryImageToVideo:
		return types.CapabilityVideo
	default:
		return types.CapabilityText
	}
}

// modelCreator is the nested owner object on every benchmark item.
type modelCreator struct {
	Name string `json:"name"`
}

// evaluation is a single named benchmark score.
type evaluation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// textModelItem is the wire shape of one LLM benchmark entry.
type textModelItem struct {
	Name         string       `json:"name"`
	ModelCreator modelCreator `json:"model_creator"`
	Evaluations  []evaluation `json:"evaluations"`

	PricePerMillionInputTokens  float64 `json:"price_per_million_input_tokens"`
	PricePerMillionOutputTokens float64 `json:"price_per_million_output_tokens"`
	PriceBlended                float64 `json:"price_blended"`

	MedianOutputTokensPerSecond    float64 `json:"median_output_tokens_per_second"`
	MedianTimeToFirstTokenSeconds  float64 `json:"median_time_to_first_token_seconds"`
	MedianTimeToFirstAnswerSeconds float64 `json:"median_time_to_first_answer_seconds"`
}

// mediaCategoryScore is an optional per-content-category elo breakdown.
type mediaCategoryScore struct {
	Name string  `json:"name"`
	Elo  float64 `json:"elo"`
}

// mediaModelItem is the wire shape of one media-arena benchmark entry.
type mediaModelItem struct {
	Name         string               `json:"name"`
	ModelCreator modelCreator         `json:"model_creator"`
	Elo          float64              `json:"elo"`
	Rank         int                  `json:"rank"`
	CI95         string               `json:"ci95"`
	PricePerUnit float64              `json:"price_per_unit"`
	Categories   []mediaCategoryScore `json:"categories,omitempty"`
}

// listResponse is the envelope every category endpoint returns.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// TextModelSpec is the registry-facing snapshot of one text model.
// It carries only benchmark-derived fields; health and usage history are
// owned by the registry.
type TextModelSpec struct {
	Provider         string
	Name             string
	Evaluations      map[string]float64
	Price            float64
	Latency          float64
	InputTokenPrice  float64
	OutputTokenPrice float64
	OutputSpeed      float64
	TimeToFirstToken float64
}

// MediaModelSpec is the registry-facing snapshot of one media model.
type MediaModelSpec struct {
	Provider   string
	Name       string
	Subtype    types.Capability
	Elo        float64
	Rank       int
	CI95       string
	Price      float64
	Categories map[string]float64
}

// Snapshot is a joined point-in-time view across all categories.
type Snapshot struct {
	FetchedAt time.Time
	Text      []TextModelSpec
	Media     []MediaModelSpec
}

func (i textModelItem) toSpec() TextModelSpec {
	evals := make(map[string]float64, len(i.Evaluations))
	for _, e := range i.Evaluations {
		evals[e.Name] = e.Score
	}
	latency := i.MedianTimeToFirstTokenSeconds
	if latency == 0 {
		latency = i.MedianTimeToFirstAnswerSeconds
	}
	return TextModelSpec{
		Provider:         i.ModelCreator.Name,
		Name:             i.Name,
		Evaluations:      evals,
		Price:            i.PriceBlended,
		Latency:          latency,
		InputTokenPrice:  i.PricePerMillionInputTokens,
		OutputTokenPrice: i.PricePerMillionOutputTokens,
		OutputSpeed:      i.MedianOutputTokensPerSecond,
		TimeToFirstToken: i.MedianTimeToFirstTokenSeconds,
	}
}

func (i mediaModelItem) toSpec(category Category) MediaModelSpec {
	spec := MediaModelSpec{
		Provider: i.ModelCreator.Name,
		Name:     i.Name,
		Subtype:  CapabilityFor(category),
		Elo:      i.Elo,
		Rank:     i.Rank,
		CI95:     i.CI95,
		Price:    i.PricePerUnit,
	}
	if len(i.Categories) > 0 {
		spec.Categories = make(map[string]float64, len(i.Categories))
		for _, c := range i.Categories {
			spec.Categories[c.Name] = c.Elo
		}
	}
	return spec
}
