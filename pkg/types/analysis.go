package types

// Analysis is the classification of a free-text request: the capability it
// needs and the benchmark metrics that matter for ranking candidates.
type Analysis struct {
	Capability Capability `json:"capability"`
	// RelevantMetrics holds 3-5 metric names used to filter candidates.
	RelevantMetrics []string `json:"relevant_metrics"`
	// PriorityMetrics holds 2-3 metric names weighted highest by ranking.
	PriorityMetrics []string `json:"priority_metrics"`
}

// HasMetric reports whether name is among the relevant metrics.
func (a Analysis) HasMetric(name string) bool {
	for _, m := range a.RelevantMetrics {
		if m == name {
			return true
		}
	}
	return false
}
