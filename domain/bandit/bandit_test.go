package bandit

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func rankedN(n int) []career.RankedItem {
	out := make([]career.RankedItem, n)
	for i := range out {
		out[i] = career.RankedItem{JobID: fmt.Sprintf("job-%02d", i), Score: float64(n - i)}
	}
	return out
}

func ids(items []career.FinalItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.CareerID
	}
	return out
}

func TestSelect_Empty(t *testing.T) {
	s := NewSelector(nil)

	got := s.Select(nil, 1, 5, seeded(1))

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelect_LengthBound(t *testing.T) {
	policies := []Policy{EpsilonGreedy{Epsilon: 0.5}, Greedy{}, Softmax{Temperature: 1}}
	for _, p := range policies {
		t.Run(p.Name(), func(t *testing.T) {
			s := NewSelector(p)
			for _, tc := range []struct{ n, k, want int }{{10, 3, 3}, {2, 5, 2}, {4, 0, 0}} {
				got := s.Select(rankedN(tc.n), 1, tc.k, seeded(7))
				assert.Len(t, got, tc.want)
			}
		})
	}
}

func TestSelect_NoDuplicates(t *testing.T) {
	ranked := append(rankedN(8), career.RankedItem{JobID: "job-00", Score: -5})
	s := NewSelector(EpsilonGreedy{Epsilon: 0.9})

	for seed := range uint64(20) {
		got := s.Select(ranked, 1, 8, seeded(seed))
		seen := map[string]bool{}
		for _, id := range ids(got) {
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	}
}

func TestSelect_DeterministicWithSeed(t *testing.T) {
	s := NewSelector(EpsilonGreedy{Epsilon: 0.5})
	ranked := rankedN(20)

	a := s.Select(ranked, 1, 10, seeded(99))
	b := s.Select(ranked, 1, 10, seeded(99))

	assert.Equal(t, a, b)
}

func TestSelect_IndependentOfUser(t *testing.T) {
	for _, p := range []Policy{EpsilonGreedy{Epsilon: 0.5}, Greedy{}, Softmax{Temperature: 1}} {
		t.Run(p.Name(), func(t *testing.T) {
			s := NewSelector(p)
			ranked := rankedN(20)

			a := s.Select(ranked, 1, 10, seeded(5))
			b := s.Select(ranked, 4242, 10, seeded(5))

			assert.Equal(t, a, b)
		})
	}
}

func TestSelect_ExploresOverSeeds(t *testing.T) {
	s := NewSelector(EpsilonGreedy{Epsilon: 0.5})
	ranked := rankedN(20)

	explored := false
	for seed := range uint64(10) {
		for _, it := range s.Select(ranked, 1, 5, seeded(seed)) {
			explored = explored || it.Explored
		}
	}
	assert.True(t, explored)
}

func TestGreedy_KeepsRankerOrder(t *testing.T) {
	s := NewSelector(Greedy{})
	ranked := []career.RankedItem{{JobID: "b", Score: 1}, {JobID: "a", Score: 2}, {JobID: "c", Score: 0.5}}

	got := s.Select(ranked, 1, 3, seeded(1))

	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.Equal(t, 2.0, got[0].FinalScore)
	for _, it := range got {
		assert.False(t, it.Explored)
	}
}

func TestSelector_SetPolicy(t *testing.T) {
	s := NewSelector(nil)
	assert.Equal(t, Config{Name: "epsilon_greedy", Epsilon: DefaultEpsilon}, ConfigOf(s.Policy()))

	s.SetPolicy(Greedy{})
	assert.Equal(t, "greedy", s.Policy().Name())
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(Config{Name: "epsilon_greedy", Epsilon: 0.2})
	require.NoError(t, err)
	assert.Equal(t, EpsilonGreedy{Epsilon: 0.2}, p)

	p, err = NewPolicy(Config{Name: "softmax", Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, Config{Name: "softmax", Temperature: 0.5}, ConfigOf(p))

	for _, bad := range []Config{
		{Name: "epsilon_greedy", Epsilon: 1.5},
		{Name: "softmax"},
		{Name: "thompson"},
	} {
		_, err := NewPolicy(bad)
		assert.ErrorIs(t, err, errs.ErrValidation, "%+v", bad)
	}
}
