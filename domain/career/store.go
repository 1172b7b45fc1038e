package career

import "context"

// Store persists the indexed career catalog.
type Store interface {
	// Insert adds careers. Existing ids are rejected with errs.ErrValidation.
	Insert(ctx context.Context, careers ...Career) error

	// Replace inserts careers, overwriting existing ids.
	Replace(ctx context.Context, careers ...Career) error

	// Get returns the careers with the given ids, in no particular order.
	// Unknown ids are skipped.
	Get(ctx context.Context, ids ...string) ([]Career, error)

	// IDs returns every indexed id in ascending order.
	IDs(ctx context.Context) ([]string, error)

	// Embeddings returns every indexed vector.
	Embeddings(ctx context.Context) ([]Embedding, error)
}
