// Package analyzer classifies a free-text request into a capability and
// the benchmark metrics relevant to ranking candidate models. The primary
// path delegates to a configured text model; a deterministic keyword scan
// backs it up and never fails.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"

	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/pkg/types"
)

const (
	minRelevant = 3
	maxRelevant = 5
	minPriority = 2
	maxPriority = 3

	defaultCacheTTL = 10 * time.Minute
)

// Analyzer produces the request analysis driving capability filtering and
// selection. A nil completer skips the delegated path entirely.
type Analyzer struct {
	completer provider.Completer
	cache     *gocache.Cache
	logger    *slog.Logger
}

// New creates an analyzer. cacheTTL <= 0 uses the default.
func New(completer provider.Completer, cacheTTL time.Duration, logger *slog.Logger) *Analyzer {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		completer: completer,
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
		logger:    logger,
	}
}

// Analyze classifies the request text. It always returns a valid,
// non-empty analysis; delegation failures are recovered locally and never
// surfaced to the caller.
func (a *Analyzer) Analyze(ctx context.Context, text string) types.Analysis {
	key := cacheKey(text)
	if cached, found := a.cache.Get(key); found {
		if analysis, ok := cached.(types.Analysis); ok {
			return analysis
		}
	}

	analysis, err := a.classify(ctx, text)
	if err != nil {
		a.logger.Debug("delegated classification failed, using keyword fallback", "error", err)
		analysis = a.FallbackAnalyze(text)
	}

	a.cache.Set(key, analysis, gocache.DefaultExpiration)
	return analysis
}

// classificationReply is the strict JSON object expected from the
// delegated model.
type classificationReply struct {
	Capability      string   `json:"capability"`
	RelevantMetrics []string `json:"relevant_metrics"`
	PriorityMetrics []string `json:"priority_metrics"`
}

func (a *Analyzer) classify(ctx context.Context, text string) (types.Analysis, error) {
	if a.completer == nil {
		return types.Analysis{}, fmt.Errorf("no classification model configured")
	}

	reply, err := a.completer.Complete(ctx, buildClassificationPrompt(text))
	if err != nil {
		return types.Analysis{}, fmt.Errorf("classification call: %w", err)
	}

	payload, ok := extractJSONObject(reply)
	if !ok {
		return types.Analysis{}, fmt.Errorf("no JSON object in classification reply")
	}

	var parsed classificationReply
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return types.Analysis{}, fmt.Errorf("parse classification reply: %w", err)
	}

	capability, err := types.ParseCapability(parsed.Capability)
	if err != nil {
		return types.Analysis{}, err
	}

	relevant := filterVocabulary(parsed.RelevantMetrics)
	if len(relevant) == 0 {
		return types.Analysis{}, fmt.Errorf("classification reply carried no known metrics")
	}
	relevant = pad(relevant, a.FallbackAnalyze(text).RelevantMetrics, minRelevant)
	relevant = clamp(relevant, maxRelevant)

	priority := intersect(filterVocabulary(parsed.PriorityMetrics), relevant)
	priority = pad(priority, relevant, minPriority)
	priority = clamp(priority, maxPriority)

	return types.Analysis{
		Capability:      capability,
		RelevantMetrics: relevant,
		PriorityMetrics: priority,
	}, nil
}

// FallbackAnalyze is the deterministic keyword path. It always yields a
// valid result and is also used to top up sparse delegated replies.
func (a *Analyzer) FallbackAnalyze(text string) types.Analysis {
	lower := strings.ToLower(text)

	capability := types.CapabilityText
	var metrics []string

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				if rule.capability != "" && capability == types.CapabilityText {
					capability = rule.capability
				}
				metrics = appendUnique(metrics, rule.metrics...)
				break
			}
		}
	}

	metrics = pad(metrics, defaultMetrics, minRelevant)
	metrics = clamp(metrics, maxRelevant)

	return types.Analysis{
		Capability:      capability,
		RelevantMetrics: metrics,
		PriorityMetrics: clamp(metrics, maxPriority),
	}
}

func buildClassificationPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Classify the following task request.\n\n")
	b.WriteString("Capabilities: ")
	for i, c := range types.Capabilities() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(c))
	}
	b.WriteString("\nMetrics: ")
	b.WriteString(strings.Join(Vocabulary, ", "))
	b.WriteString("\n\nRespond with only a JSON object of the form ")
	b.WriteString(`{"capability": "...", "relevant_metrics": [3-5 metrics], "priority_metrics": [2-3 metrics]}.`)
	b.WriteString("\n\nRequest:\n")
	b.WriteString(text)
	return b.String()
}

// extractJSONObject returns the first balanced {...} block in s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func filterVocabulary(metrics []string) []string {
	var out []string
	for _, m := range metrics {
		m = strings.TrimSpace(strings.ToLower(m))
		if InVocabulary(m) {
			out = appendUnique(out, m)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		exists := false
		for _, have := range dst {
			if have == item {
				exists = true
				break
			}
		}
		if !exists {
			dst = append(dst, item)
		}
	}
	return dst
}

// pad tops up dst from extras until it reaches n items.
func pad(dst, extras []string, n int) []string {
	for _, e := range extras {
		if len(dst) >= n {
			break
		}
		dst = appendUnique(dst, e)
	}
	return dst
}

func clamp(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func intersect(a, b []string) []string {
	var out []string
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
