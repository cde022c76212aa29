package analyzer

import "github.com/modelmux/modelmux/pkg/types"

// Vocabulary is the fixed set of benchmark metric names the analyzer may
// emit. Anything outside this list coming back from the delegated
// classification call is discarded.
var Vocabulary = []string{
	MetricGeneralIntelligence,
	MetricCoding,
	MetricMath,
	MetricReasoning,
	MetricInstructionFollowing,
	MetricCreativeWriting,
	MetricLongContext,
	MetricMultilingual,
	MetricImageGeneration,
	MetricSpeechSynthesis,
	MetricVideoGeneration,
	MetricEmbeddingQuality,
}

const (
	MetricGeneralIntelligence  = "general_intelligence"
	MetricCoding               = "coding"
	MetricMath                 = "math"
	MetricReasoning            = "reasoning"
	MetricInstructionFollowing = "instruction_following"
	MetricCreativeWriting      = "creative_writing"
	MetricLongContext          = "long_context"
	MetricMultilingual         = "multilingual"
	MetricImageGeneration      = "image_generation"
	MetricSpeechSynthesis      = "speech_synthesis"
	MetricVideoGeneration      = "video_generation"
	MetricEmbeddingQuality     = "embedding_quality"
)

// InVocabulary reports whether name is a known metric.
func InVocabulary(name string) bool {
	for _, m := range Vocabulary {
		if m == name {
			return true
		}
	}
	return false
}

// keywordRule maps request-text keywords to a capability hint and metrics.
type keywordRule struct {
	keywords   []string
	capability types.Capability
	metrics    []string
}

// keywordRules is the deterministic fallback table, scanned in order.
// Media rules come first so "generate an image of code" routes to image.
var keywordRules = []keywordRule{
	{
		keywords:   []string{"image", "picture", "photo", "draw", "illustration", "logo", "diagram"},
		capability: types.CapabilityImage,
		metrics:    []string{MetricImageGeneration},
	},
	{
		keywords:   []string{"speech", "voice", "audio", "speak", "narrate", "pronounce"},
		capability: types.CapabilityAudio,
		metrics:    []string{MetricSpeechSynthesis},
	},
	{
		keywords:   []string{"video", "animate", "animation", "clip", "footage"},
		capability: types.CapabilityVideo,
		metrics:    []string{MetricVideoGeneration},
	},
	{
		keywords:   []string{"embed", "embedding", "similarity", "semantic search", "vector"},
		capability: types.CapabilityEmbedding,
		metrics:    []string{MetricEmbeddingQuality},
	},
	{
		keywords: []string{"code", "program", "function", "debug", "script", "refactor", "compile", "bug"},
		metrics:  []string{MetricCoding, MetricReasoning},
	},
	{
		keywords: []string{"math", "calculate", "equation", "proof", "integral", "algebra"},
		metrics:  []string{MetricMath, MetricReasoning},
	},
	{
		keywords: []string{"translate", "translation", "spanish", "french", "german", "japanese", "chinese"},
		metrics:  []string{MetricMultilingual},
	},
	{
		keywords: []string{"story", "poem", "essay", "fiction", "creative", "lyrics"},
		metrics:  []string{MetricCreativeWriting},
	},
	{
		keywords: []string{"summarize", "summary", "document", "transcript", "report"},
		metrics:  []string{MetricLongContext},
	},
	{
		keywords: []string{"think", "reason", "logic", "puzzle", "step by step"},
		metrics:  []string{MetricReasoning},
	},
}

// defaultMetrics pad any result below the minimum relevant count.
var defaultMetrics = []string{
	MetricGeneralIntelligence,
	MetricReasoning,
	MetricInstructionFollowing,
}
