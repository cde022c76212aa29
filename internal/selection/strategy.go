package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/modelmux/modelmux/internal/provider"
	"github.com/modelmux/modelmux/pkg/types"
)

// Strategy identifies a candidate-ordering policy. Exactly one is active.
type Strategy string

const (
	// StrategyCheapest orders by ascending price.
	StrategyCheapest Strategy = "cheapest"
	// StrategyMostAccurate orders by descending mean relevant score.
	StrategyMostAccurate Strategy = "most-accurate"
	// StrategyBalanced asks a model for a best-value ordering and falls
	// back to score/price. This is the default.
	StrategyBalanced Strategy = "balanced"
)

const (
	// maxSelected bounds the ordered list a strategy emits.
	maxSelected = 5
	// maxRotated bounds the list after the rotation pass.
	maxRotated = 10
)

// Strategies lists every valid strategy.
func Strategies() []Strategy {
	return []Strategy{StrategyCheapest, StrategyMostAccurate, StrategyBalanced}
}

// ParseStrategy validates a strategy name; empty means balanced.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyBalanced, nil
	}
	for _, valid := range Strategies() {
		if string(valid) == s {
			return valid, nil
		}
	}
	return "", fmt.Errorf("unknown selection strategy: %q", s)
}

// Engine orders filtered candidates according to the configured strategy
// and the optional provider-rotation pass.
type Engine struct {
	strategy Strategy
	rotation bool
	ranker   provider.Completer
	logger   *slog.Logger
}

// NewEngine creates a selection engine. ranker may be nil, in which case
// the balanced strategy always uses its deterministic fallback.
func NewEngine(strategy Strategy, rotation bool, ranker provider.Completer, logger *slog.Logger) *Engine {
	if strategy == "" {
		strategy = StrategyBalanced
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		strategy: strategy,
		rotation: rotation,
		ranker:   ranker,
		logger:   logger,
	}
}

// Strategy returns the active strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Select orders the candidates. Without rotation the result holds at most
// five entries; with rotation the full candidate pool is reordered for
// provider fairness and truncated to ten.
func (e *Engine) Select(ctx context.Context, cands []types.Candidate, analysis types.Analysis) []types.Candidate {
	if len(cands) == 0 {
		return nil
	}

	var selected []types.Candidate
	switch e.strategy {
	case StrategyCheapest:
		selected = cheapest(cands)
	case StrategyMostAccurate:
		selected = mostAccurate(cands, analysis.RelevantMetrics)
	default:
		selected = e.balanced(ctx, cands, analysis)
	}

	if !e.rotation {
		return selected
	}

	// Rotation reorders the selected models plus the remaining pool for
	// provider fairness, keeping the candidate set itself unchanged.
	pool := append(append([]types.Candidate{}, selected...), remainder(cands, selected)...)
	return rotate(pool, maxRotated)
}

// cheapest keeps priced models, ascending by price.
func cheapest(cands []types.Candidate) []types.Candidate {
	priced := make([]types.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Model.Price() > 0 {
			priced = append(priced, c)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Model.Price() < priced[j].Model.Price()
	})
	return truncate(priced, maxSelected)
}

// mostAccurate orders by the mean evaluation score over the relevant
// metrics, counting a missing metric as zero.
func mostAccurate(cands []types.Candidate, relevant []string) []types.Candidate {
	ordered := append([]types.Candidate{}, cands...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return meanScore(ordered[i], relevant) > meanScore(ordered[j], relevant)
	})
	return truncate(ordered, maxSelected)
}

// meanScore averages the candidate's scores across the relevant metrics.
func meanScore(c types.Candidate, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	evals := c.Model.Evaluations()
	var sum float64
	for _, m := range relevant {
		sum += evals[m]
	}
	return sum / float64(len(relevant))
}

// scoreOverPrice is the deterministic balanced fallback: descending
// score/price ratio over priced models.
func scoreOverPrice(cands []types.Candidate, relevant []string) []types.Candidate {
	priced := make([]types.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Model.Price() > 0 {
			priced = append(priced, c)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		ri := meanScore(priced[i], relevant) / priced[i].Model.Price()
		rj := meanScore(priced[j], relevant) / priced[j].Model.Price()
		return ri > rj
	})
	return truncate(priced, maxSelected)
}

// remainder returns the candidates not present in selected, preserving
// their original order.
func remainder(cands, selected []types.Candidate) []types.Candidate {
	chosen := make(map[types.ModelKey]struct{}, len(selected))
	for _, c := range selected {
		chosen[c.Key()] = struct{}{}
	}
	var rest []types.Candidate
	for _, c := range cands {
		if _, ok := chosen[c.Key()]; !ok {
			rest = append(rest, c)
		}
	}
	return rest
}

func truncate(cands []types.Candidate, n int) []types.Candidate {
	if len(cands) > n {
		return cands[:n]
	}
	return cands
}
