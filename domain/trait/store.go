package trait

import (
	"context"
	"time"
)

// SnapshotStore persists trait snapshots. Snapshots are append-only; the
// latest is the one saved most recently.
type SnapshotStore interface {
	// Save appends a snapshot and returns it with its id and timestamp.
	Save(ctx context.Context, s Snapshot) (Snapshot, error)

	// Latest returns the user's most recent snapshot or errs.ErrNotFound.
	Latest(ctx context.Context, userID int64) (Snapshot, error)
}

// UserEmbedding is the essay embedding currently associated with a user.
type UserEmbedding struct {
	UserID    int64
	Vector    []float64
	Language  string
	UpdatedAt time.Time
}

// EmbeddingStore keeps one essay embedding per user, replaced on each
// re-inference.
type EmbeddingStore interface {
	// Upsert stores the embedding, replacing any previous one.
	Upsert(ctx context.Context, e UserEmbedding) error

	// Get returns the user's embedding or errs.ErrNotFound.
	Get(ctx context.Context, userID int64) (UserEmbedding, error)
}
