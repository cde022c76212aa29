package selection

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/modelmux/modelmux/pkg/types"
)

// balanced asks the ranking model for a best-value ordering of the
// candidates. Any failure of the call or its parse falls back to the
// deterministic score/price ranking.
func (e *Engine) balanced(ctx context.Context, cands []types.Candidate, analysis types.Analysis) []types.Candidate {
	if e.ranker == nil {
		return scoreOverPrice(cands, analysis.RelevantMetrics)
	}

	ranked, err := e.delegatedRank(ctx, cands, analysis)
	if err != nil {
		e.logger.Debug("delegated ranking failed, using score/price fallback", "error", err)
		return scoreOverPrice(cands, analysis.RelevantMetrics)
	}
	return ranked
}

func (e *Engine) delegatedRank(ctx context.Context, cands []types.Candidate, analysis types.Analysis) ([]types.Candidate, error) {
	reply, err := e.ranker.Complete(ctx, buildRankingPrompt(cands, analysis))
	if err != nil {
		return nil, fmt.Errorf("ranking call: %w", err)
	}

	payload, ok := extractJSONArray(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON list in ranking reply")
	}

	var ids []string
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		return nil, fmt.Errorf("parse ranking reply: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ranking reply was empty")
	}

	byID := make(map[string]types.Candidate, len(cands))
	for _, c := range cands {
		byID[c.Key().String()] = c
	}

	var ordered []types.Candidate
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("ranking reply named no known candidates")
	}

	// Unranked remainder keeps its original order behind the ranked part.
	ordered = append(ordered, remainder(cands, ordered)...)
	return truncate(ordered, maxSelected), nil
}

func buildRankingPrompt(cands []types.Candidate, analysis types.Analysis) string {
	var b strings.Builder
	b.WriteString("Rank the following models by best value for the task, considering both quality on the listed metrics and price.\n\n")
	b.WriteString("Priority metrics: ")
	b.WriteString(strings.Join(analysis.PriorityMetrics, ", "))
	b.WriteString("\n\nModels:\n")
	for _, c := range cands {
		key := c.Key()
		fmt.Fprintf(&b, "- %s price=%.4f", key.String(), c.Model.Price())
		evals := c.Model.Evaluations()
		for _, m := range analysis.RelevantMetrics {
			if score, ok := evals[m]; ok {
				fmt.Fprintf(&b, " %s=%.3f", m, score)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with only a JSON list of \"provider:model\" identifiers, best value first.")
	return b.String()
}

// extractJSONArray returns the first balanced [...] block in s.
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
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
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
