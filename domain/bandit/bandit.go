// Package bandit turns a ranked list into the list exposed to the user,
// trading off relevance against exploration.
package bandit

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
)

// DefaultEpsilon is the exploration rate of the default policy.
const DefaultEpsilon = 0.1

// Policy picks up to topK items from a ranked list sorted by descending
// score. Implementations must not return duplicates.
type Policy interface {
	Name() string
	Pick(ranked []career.RankedItem, topK int, rng *rand.Rand) []career.FinalItem
}

// Selector applies the current policy. The policy can be replaced at any
// time without affecting in-flight selections.
type Selector struct {
	policy atomic.Pointer[Policy]
}

// NewSelector creates a Selector using policy, or EpsilonGreedy with
// DefaultEpsilon when policy is nil.
func NewSelector(policy Policy) *Selector {
	if policy == nil {
		policy = EpsilonGreedy{Epsilon: DefaultEpsilon}
	}
	s := &Selector{}
	s.SetPolicy(policy)
	return s
}

// SetPolicy swaps the active policy.
func (s *Selector) SetPolicy(p Policy) {
	s.policy.Store(&p)
}

// Policy returns the active policy.
func (s *Selector) Policy() Policy {
	return *s.policy.Load()
}

// Select returns at most topK items for the user. The output depends only on
// ranked, topK and rng; the user id is not read by any policy. A nil rng
// draws a fresh random seed.
func (s *Selector) Select(ranked []career.RankedItem, _ int64, topK int, rng *rand.Rand) []career.FinalItem {
	if len(ranked) == 0 || topK <= 0 {
		return []career.FinalItem{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	sorted := slices.Clone(ranked)
	career.SortRanked(sorted)
	return s.Policy().Pick(dedupe(sorted), topK, rng)
}

// dedupe keeps the first (highest scored) occurrence of each id.
func dedupe(ranked []career.RankedItem) []career.RankedItem {
	seen := make(map[string]struct{}, len(ranked))
	out := ranked[:0]
	for _, r := range ranked {
		if _, ok := seen[r.JobID]; ok {
			continue
		}
		seen[r.JobID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// EpsilonGreedy fills each slot with the best remaining item, except that
// with probability Epsilon it takes a uniformly chosen non-best remaining
// item instead.
type EpsilonGreedy struct {
	Epsilon float64
}

// Name implements Policy.
func (EpsilonGreedy) Name() string { return "epsilon_greedy" }

// Pick implements Policy.
func (p EpsilonGreedy) Pick(ranked []career.RankedItem, topK int, rng *rand.Rand) []career.FinalItem {
	remaining := slices.Clone(ranked)
	n := min(topK, len(remaining))
	out := make([]career.FinalItem, 0, n)

	for range n {
		idx := 0
		if len(remaining) > 1 && p.Epsilon > 0 && rng.Float64() < p.Epsilon {
			idx = 1 + rng.IntN(len(remaining)-1)
		}
		item := remaining[idx]
		out = append(out, career.FinalItem{CareerID: item.JobID, FinalScore: item.Score, Explored: idx != 0})
		remaining = slices.Delete(remaining, idx, idx+1)
	}
	return out
}

// Greedy returns the ranker order unchanged.
type Greedy struct{}

// Name implements Policy.
func (Greedy) Name() string { return "greedy" }

// Pick implements Policy.
func (Greedy) Pick(ranked []career.RankedItem, topK int, rng *rand.Rand) []career.FinalItem {
	return EpsilonGreedy{}.Pick(ranked, topK, rng)
}

// Softmax samples items without replacement with probability proportional
// to exp(score/Temperature).
type Softmax struct {
	Temperature float64
}

// Name implements Policy.
func (Softmax) Name() string { return "softmax" }

// Pick implements Policy.
func (p Softmax) Pick(ranked []career.RankedItem, topK int, rng *rand.Rand) []career.FinalItem {
	temp := p.Temperature
	if temp <= 0 {
		temp = 1
	}
	remaining := slices.Clone(ranked)
	n := min(topK, len(remaining))
	out := make([]career.FinalItem, 0, n)

	for range n {
		best := remaining[0].Score
		weights := make([]float64, len(remaining))
		total := 0.0
		for i, r := range remaining {
			weights[i] = math.Exp((r.Score - best) / temp)
			total += weights[i]
		}

		idx := len(remaining) - 1
		target := rng.Float64() * total
		for i, w := range weights {
			if target < w {
				idx = i
				break
			}
			target -= w
		}

		item := remaining[idx]
		out = append(out, career.FinalItem{CareerID: item.JobID, FinalScore: item.Score, Explored: idx != 0})
		remaining = slices.Delete(remaining, idx, idx+1)
	}
	return out
}

// Config describes a policy in serialisable form.
type Config struct {
	Name        string  `json:"name"`
	Epsilon     float64 `json:"epsilon,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ConfigOf describes p.
func ConfigOf(p Policy) Config {
	switch v := p.(type) {
	case EpsilonGreedy:
		return Config{Name: v.Name(), Epsilon: v.Epsilon}
	case Softmax:
		return Config{Name: v.Name(), Temperature: v.Temperature}
	}
	return Config{Name: p.Name()}
}

// NewPolicy builds a policy from its description.
func NewPolicy(c Config) (Policy, error) {
	switch c.Name {
	case "", "epsilon_greedy":
		if c.Epsilon < 0 || c.Epsilon > 1 || math.IsNaN(c.Epsilon) {
			return nil, errs.Validationf("epsilon must be within [0,1], got %v", c.Epsilon)
		}
		return EpsilonGreedy{Epsilon: c.Epsilon}, nil
	case "greedy":
		return Greedy{}, nil
	case "softmax":
		if c.Temperature <= 0 || math.IsNaN(c.Temperature) {
			return nil, errs.Validationf("temperature must be positive, got %v", c.Temperature)
		}
		return Softmax{Temperature: c.Temperature}, nil
	}
	return nil, fmt.Errorf("%w: unknown policy %q", errs.ErrValidation, c.Name)
}
