package retrieval

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/trait"
)

const shardSize = 2048

type flatState struct {
	dim     int
	ids     []string
	vectors [][]float64
}

// FlatIndex is an exact in-memory index. Reloads build a new state and
// swap it in, so searches never see a partial catalog.
type FlatIndex struct {
	state atomic.Pointer[flatState]
}

// NewFlatIndex creates an empty FlatIndex.
func NewFlatIndex() *FlatIndex {
	idx := &FlatIndex{}
	idx.state.Store(&flatState{})
	return idx
}

// Load replaces the index with every vector in store.
func (f *FlatIndex) Load(ctx context.Context, store career.Store) error {
	embeddings, err := store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("load career embeddings: %w", err)
	}
	return f.Replace(embeddings)
}

// Replace swaps in embeddings. Every vector must share one dimension.
func (f *FlatIndex) Replace(embeddings []career.Embedding) error {
	next := &flatState{
		ids:     make([]string, 0, len(embeddings)),
		vectors: make([][]float64, 0, len(embeddings)),
	}
	for _, e := range embeddings {
		if next.dim == 0 {
			next.dim = len(e.Vector)
		}
		if len(e.Vector) != next.dim || next.dim == 0 {
			return errs.Validationf("career %s has dimension %d, index has %d", e.ID, len(e.Vector), next.dim)
		}
		next.ids = append(next.ids, e.ID)
		next.vectors = append(next.vectors, trait.L2Normalize(e.Vector))
	}
	f.state.Store(next)
	return nil
}

// Size returns the number of indexed careers.
func (f *FlatIndex) Size() int { return len(f.state.Load().ids) }

// Dim returns the index dimension, or 0 when empty.
func (f *FlatIndex) Dim() int { return f.state.Load().dim }

// Search scores every vector and keeps the best topN.
func (f *FlatIndex) Search(ctx context.Context, query []float64, topN int) ([]career.Candidate, error) {
	st := f.state.Load()
	if len(st.ids) == 0 || topN <= 0 {
		return []career.Candidate{}, nil
	}
	if len(query) != st.dim {
		return nil, errs.Validationf("query dimension %d does not match index dimension %d", len(query), st.dim)
	}

	scored := make([]career.Candidate, len(st.ids))
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(st.ids); start += shardSize {
		end := min(start+shardSize, len(st.ids))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				scored[i] = career.Candidate{JobID: st.ids[i], Similarity: dot(query, st.vectors[i])}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	career.SortCandidates(scored)
	return scored[:min(topN, len(scored))], nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
