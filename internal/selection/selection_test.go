package selection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/pkg/types"
)

func candidate(provider, name string, price float64, evals map[string]float64) types.Candidate {
	return types.Candidate{
		Model: &types.TextModel{ModelBase: types.ModelBase{
			Name:     name,
			Provider: provider,
			PriceUSD: price,
			Evals:    evals,
		}},
		HasCredentials: true,
	}
}

func keys(cands []types.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Key().String()
	}
	return out
}

type fakeRanker struct {
	reply string
	err   error
}

func (f fakeRanker) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func TestFilter_CredentialsAndMetricIntersection(t *testing.T) {
	withCreds := candidate("openai", "gpt-4o", 4.4, map[string]float64{"coding": 0.8})
	noCreds := candidate("anthropic", "claude-sonnet", 6.0, map[string]float64{"coding": 0.9})
	noCreds.HasCredentials = false
	noMetrics := candidate("groq", "llama-guard", 0.2, map[string]float64{"multilingual": 0.4})

	got := Filter([]types.Candidate{withCreds, noCreds, noMetrics}, []string{"coding", "reasoning"})

	require.Len(t, got, 1)
	assert.Equal(t, "openai:gpt-4o", got[0].Key().String())
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nil, []string{"coding"}))
}

func TestCheapest_OrdersByPriceAndDropsUnpriced(t *testing.T) {
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	b := candidate("p2", "b", 10, map[string]float64{"coding": 0.95})
	free := candidate("p3", "free", 0, map[string]float64{"coding": 0.5})

	e := NewEngine(StrategyCheapest, false, nil, nil)
	got := e.Select(context.Background(), []types.Candidate{b, free, a}, types.Analysis{RelevantMetrics: []string{"coding"}})

	assert.Equal(t, []string{"p1:a", "p2:b"}, keys(got))
}

func TestMostAccurate_MeanOverRelevantMissingCountsZero(t *testing.T) {
	// b scores higher on coding but is missing math, dragging its mean down.
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.8, "math": 0.8})
	b := candidate("p2", "b", 1, map[string]float64{"coding": 0.95})

	e := NewEngine(StrategyMostAccurate, false, nil, nil)
	got := e.Select(context.Background(), []types.Candidate{b, a}, types.Analysis{RelevantMetrics: []string{"coding", "math"}})

	assert.Equal(t, []string{"p1:a", "p2:b"}, keys(got))
}

func TestStrategyContrast_CheapestVsAccurate(t *testing.T) {
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	b := candidate("p2", "b", 10, map[string]float64{"coding": 0.95})
	analysis := types.Analysis{RelevantMetrics: []string{"coding"}}

	cheap := NewEngine(StrategyCheapest, false, nil, nil).
		Select(context.Background(), []types.Candidate{a, b}, analysis)
	assert.Equal(t, "p1:a", cheap[0].Key().String())

	accurate := NewEngine(StrategyMostAccurate, false, nil, nil).
		Select(context.Background(), []types.Candidate{a, b}, analysis)
	assert.Equal(t, "p2:b", accurate[0].Key().String())
}

func TestBalanced_FallbackRanksByScoreOverPrice(t *testing.T) {
	// a: 0.9/1 = 0.9, b: 0.95/10 = 0.095 -> a first.
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	b := candidate("p2", "b", 10, map[string]float64{"coding": 0.95})

	e := NewEngine(StrategyBalanced, false, fakeRanker{err: errors.New("down")}, nil)
	got := e.Select(context.Background(), []types.Candidate{b, a}, types.Analysis{RelevantMetrics: []string{"coding"}})

	assert.Equal(t, []string{"p1:a", "p2:b"}, keys(got))
}

func TestBalanced_NilRankerUsesFallback(t *testing.T) {
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	e := NewEngine(StrategyBalanced, false, nil, nil)
	got := e.Select(context.Background(), []types.Candidate{a}, types.Analysis{RelevantMetrics: []string{"coding"}})
	require.Len(t, got, 1)
}

func TestBalanced_DelegatedOrderWithUnrankedRemainder(t *testing.T) {
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	b := candidate("p2", "b", 2, map[string]float64{"coding": 0.8})
	c := candidate("p3", "c", 3, map[string]float64{"coding": 0.7})

	ranker := fakeRanker{reply: `Best value order: ["p3:c", "p1:a", "p9:ghost"]`}
	e := NewEngine(StrategyBalanced, false, ranker, nil)
	got := e.Select(context.Background(), []types.Candidate{a, b, c}, types.Analysis{RelevantMetrics: []string{"coding"}})

	// Ranked candidates first, unknown ids dropped, remainder in original order.
	assert.Equal(t, []string{"p3:c", "p1:a", "p2:b"}, keys(got))
}

func TestBalanced_GarbageReplyFallsBack(t *testing.T) {
	a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	b := candidate("p2", "b", 10, map[string]float64{"coding": 0.95})

	e := NewEngine(StrategyBalanced, false, fakeRanker{reply: "no list here"}, nil)
	got := e.Select(context.Background(), []types.Candidate{b, a}, types.Analysis{RelevantMetrics: []string{"coding"}})

	assert.Equal(t, "p1:a", got[0].Key().String())
}

func TestSelect_TruncatesToFive(t *testing.T) {
	var cands []types.Candidate
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		cands = append(cands, candidate("p", name, 1, map[string]float64{"coding": 0.5}))
	}
	e := NewEngine(StrategyCheapest, false, nil, nil)
	got := e.Select(context.Background(), cands, types.Analysis{RelevantMetrics: []string{"coding"}})
	assert.Len(t, got, 5)
}

func TestRotation_InterleavesProvidersByLastUsed(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	p1a := candidate("p1", "a", 1, map[string]float64{"coding": 0.9})
	p1b := candidate("p1", "b", 2, map[string]float64{"coding": 0.8})
	p2a := candidate("p2", "c", 3, map[string]float64{"coding": 0.7})
	p2b := candidate("p2", "d", 4, map[string]float64{"coding": 0.6})
	p1a.ProviderLastUsed = t0
	p1b.ProviderLastUsed = t0
	p2a.ProviderLastUsed = t1
	p2b.ProviderLastUsed = t1

	e := NewEngine(StrategyCheapest, true, nil, nil)
	got := e.Select(context.Background(), []types.Candidate{p1a, p1b, p2a, p2b},
		types.Analysis{RelevantMetrics: []string{"coding"}})

	// p1 is older, so it leads each round.
	assert.Equal(t, []string{"p1:a", "p2:c", "p1:b", "p2:d"}, keys(got))
}

func TestRotation_NeverUsedProviderSortsFirst(t *testing.T) {
	used := candidate("used", "m1", 1, map[string]float64{"coding": 0.9})
	used.ProviderLastUsed = time.Now()
	fresh := candidate("fresh", "m2", 2, map[string]float64{"coding": 0.8})

	e := NewEngine(StrategyCheapest, true, nil, nil)
	got := e.Select(context.Background(), []types.Candidate{used, fresh},
		types.Analysis{RelevantMetrics: []string{"coding"}})

	assert.Equal(t, "fresh:m2", got[0].Key().String())
}

func TestRotation_KeepsCandidateSetAndTruncatesToTen(t *testing.T) {
	var cands []types.Candidate
	for _, provider := range []string{"p1", "p2", "p3"} {
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			cands = append(cands, candidate(provider, name, 1, map[string]float64{"coding": 0.5}))
		}
	}

	e := NewEngine(StrategyCheapest, true, nil, nil)
	got := e.Select(context.Background(), cands, types.Analysis{RelevantMetrics: []string{"coding"}})

	assert.Len(t, got, 10)
	seen := map[string]int{}
	for _, c := range got {
		seen[c.Key().Provider]++
	}
	// Fair interleave: ten slots across three providers.
	assert.GreaterOrEqual(t, seen["p1"], 3)
	assert.GreaterOrEqual(t, seen["p2"], 3)
	assert.GreaterOrEqual(t, seen["p3"], 3)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyBalanced, s)

	s, err = ParseStrategy("cheapest")
	require.NoError(t, err)
	assert.Equal(t, StrategyCheapest, s)

	_, err = ParseStrategy("fastest")
	assert.Error(t, err)
}
