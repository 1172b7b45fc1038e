package interaction

import (
	"math/rand/v2"
	"slices"
)

// DefaultSeed seeds negative sampling when no seed is given.
const DefaultSeed uint64 = 42

// TrainingPair is a labelled (user, job) example for the ranker.
type TrainingPair struct {
	UserID int64  `json:"user_id"`
	JobID  string `json:"job_id"`
	Label  int    `json:"label"`
}

// PairOption configures BuildPairs.
type PairOption func(*pairConfig)

type pairConfig struct {
	seed    uint64
	catalog []string
}

// WithSeed sets the negative sampling seed.
func WithSeed(seed uint64) PairOption {
	return func(c *pairConfig) { c.seed = seed }
}

// WithCatalog sets the job universe negatives are drawn from. Without it the
// universe is every job that appears in the events.
func WithCatalog(jobIDs []string) PairOption {
	return func(c *pairConfig) { c.catalog = jobIDs }
}

// BuildPairs labels every observed (user, job) pair, 1 when the user
// clicked, saved or applied and 0 when they only saw it, then adds
// negativeRatio x |jobs seen| unseen jobs per user as label-0 pairs. Events
// without a user or job are skipped.
//
// Output is ordered by user id, then observed pairs by job id, then sampled
// negatives in draw order. Each user's sample is drawn from its own stream
// derived from the seed, so the result is identical across runs and does
// not change when other users are added.
func BuildPairs(events []Event, negativeRatio int, opts ...PairOption) []TrainingPair {
	cfg := pairConfig{seed: DefaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	seen := map[int64]map[string]bool{}
	jobs := map[string]struct{}{}
	for _, e := range events {
		if !e.Trainable() {
			continue
		}
		uid := *e.UserID
		if seen[uid] == nil {
			seen[uid] = map[string]bool{}
		}
		seen[uid][e.JobID] = seen[uid][e.JobID] || e.Type.Positive()
		jobs[e.JobID] = struct{}{}
	}

	universe := cfg.catalog
	if universe == nil {
		universe = make([]string, 0, len(jobs))
		for id := range jobs {
			universe = append(universe, id)
		}
	}
	universe = slices.Compact(slices.Sorted(slices.Values(universe)))

	users := make([]int64, 0, len(seen))
	for uid := range seen {
		users = append(users, uid)
	}
	slices.Sort(users)

	var out []TrainingPair
	for _, uid := range users {
		observed := seen[uid]
		jobIDs := make([]string, 0, len(observed))
		for id := range observed {
			jobIDs = append(jobIDs, id)
		}
		slices.Sort(jobIDs)

		for _, id := range jobIDs {
			label := 0
			if observed[id] {
				label = 1
			}
			out = append(out, TrainingPair{UserID: uid, JobID: id, Label: label})
		}

		if negativeRatio <= 0 {
			continue
		}
		for _, id := range sampleUnseen(universe, observed, negativeRatio*len(jobIDs), cfg.seed, uid) {
			out = append(out, TrainingPair{UserID: uid, JobID: id, Label: 0})
		}
	}
	return out
}

// sampleUnseen draws up to n ids from universe that are not in seen,
// uniformly and without replacement.
func sampleUnseen(universe []string, seen map[string]bool, n int, seed uint64, userID int64) []string {
	pool := make([]string, 0, len(universe))
	for _, id := range universe {
		if _, ok := seen[id]; !ok {
			pool = append(pool, id)
		}
	}
	n = min(n, len(pool))
	if n == 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(seed, uint64(userID)))
	for i := range n {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
