package selection

import (
	"sort"
	"time"

	"github.com/modelmux/modelmux/pkg/types"
)

// rotate reorders the pool for provider fairness: providers ascending by
// last use (never-used first), then one model per provider per round until
// the pool is exhausted, truncated to n.
func rotate(pool []types.Candidate, n int) []types.Candidate {
	if len(pool) == 0 {
		return nil
	}

	type providerGroup struct {
		name     string
		lastUsed time.Time
		models   []types.Candidate
	}

	groups := make(map[string]*providerGroup)
	var order []*providerGroup
	for _, c := range pool {
		name := c.Key().Provider
		g, ok := groups[name]
		if !ok {
			g = &providerGroup{name: name, lastUsed: c.ProviderLastUsed}
			groups[name] = g
			order = append(order, g)
		}
		g.models = append(g.models, c)
	}

	// The zero time means never used and naturally sorts first.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].lastUsed.Before(order[j].lastUsed)
	})

	out := make([]types.Candidate, 0, len(pool))
	for round := 0; len(out) < len(pool); round++ {
		emitted := false
		for _, g := range order {
			if round < len(g.models) {
				out = append(out, g.models[round])
				emitted = true
			}
		}
		if !emitted {
			break
		}
	}
	return truncate(out, n)
}
