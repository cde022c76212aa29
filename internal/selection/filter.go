// Package selection implements the capability filter and the selection
// strategy engine that orders candidate models for the execution loop.
package selection

import "github.com/modelmux/modelmux/pkg/types"

// Filter narrows candidates to models whose provider has credentials
// configured and whose evaluation set intersects the relevant metrics.
// Pure function of its inputs; no side effects.
func Filter(cands []types.Candidate, relevantMetrics []string) []types.Candidate {
	out := make([]types.Candidate, 0, len(cands))
	for _, c := range cands {
		if !c.HasCredentials {
			continue
		}
		if !hasAnyMetric(c.Model.Evaluations(), relevantMetrics) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasAnyMetric(evals map[string]float64, metrics []string) bool {
	for _, m := range metrics {
		if _, ok := evals[m]; ok {
			return true
		}
	}
	return false
}
