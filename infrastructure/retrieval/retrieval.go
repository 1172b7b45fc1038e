// Package retrieval finds the careers closest to a user embedding.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/trait"
)

// Index is a searchable set of L2-normalized career vectors.
type Index interface {
	// Search returns at most topN candidates by descending cosine
	// similarity, ties by id. An empty index returns an empty slice.
	Search(ctx context.Context, query []float64, topN int) ([]career.Candidate, error)

	// Load replaces the index contents with the store's vectors.
	Load(ctx context.Context, store career.Store) error

	// Size returns the number of indexed careers.
	Size() int
}

// Retriever is the cold-start-aware front of an Index.
type Retriever struct {
	index  Index
	logger *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(index Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, logger: logger}
}

// Index returns the underlying index.
func (r *Retriever) Index() Index { return r.index }

// Retrieve returns the topN nearest careers. A nil or empty user vector is a
// cold start and yields an empty result, as does topN <= 0.
func (r *Retriever) Retrieve(ctx context.Context, user []float64, topN int) ([]career.Candidate, error) {
	if len(user) == 0 || topN <= 0 {
		return []career.Candidate{}, nil
	}
	if r.index.Size() == 0 {
		r.logger.DebugContext(ctx, "retrieval against empty index")
		return []career.Candidate{}, nil
	}
	return r.index.Search(ctx, trait.L2Normalize(user), topN)
}
