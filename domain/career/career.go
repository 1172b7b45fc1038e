// Package career holds the career catalog types and the ephemeral results of
// retrieval, ranking and selection.
package career

import (
	"cmp"
	"slices"
	"time"
)

// Career is an indexed catalog entry. Its embedding is L2-normalized and
// never changes once stored.
type Career struct {
	ID          string
	Title       string
	Description string
	RIASEC      []float64
	Embedding   []float64
	CreatedAt   time.Time
}

// Text returns the text that is embedded for the career.
func (c Career) Text() string {
	switch {
	case c.Title == "":
		return c.Description
	case c.Description == "":
		return c.Title
	}
	return c.Title + ". " + c.Description
}

// Embedding pairs an id with its vector.
type Embedding struct {
	ID     string
	Vector []float64
}

// Candidate is a retrieval hit.
type Candidate struct {
	JobID      string
	Similarity float64
}

// RankedItem is a ranker output. Score is unbounded and only meaningful for
// ordering.
type RankedItem struct {
	JobID string
	Score float64
}

// FinalItem is an item exposed to the user.
type FinalItem struct {
	CareerID   string
	FinalScore float64
	Explored   bool
}

// SortCandidates orders candidates by descending similarity, ties by id.
func SortCandidates(c []Candidate) {
	slices.SortStableFunc(c, func(a, b Candidate) int {
		if a.Similarity != b.Similarity {
			return cmp.Compare(b.Similarity, a.Similarity)
		}
		return cmp.Compare(a.JobID, b.JobID)
	})
}

// SortRanked orders ranked items by descending score, ties by id.
func SortRanked(r []RankedItem) {
	slices.SortStableFunc(r, func(a, b RankedItem) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.JobID, b.JobID)
	})
}

// CandidateIDs returns the job ids in candidate order.
func CandidateIDs(c []Candidate) []string {
	ids := make([]string, len(c))
	for i, x := range c {
		ids[i] = x.JobID
	}
	return ids
}
