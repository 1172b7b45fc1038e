package persistence

import (
	"context"
	"time"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/repository"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/internal/database"
)

// SnapshotStore implements trait.SnapshotStore.
type SnapshotStore struct {
	database.Repository[trait.Snapshot, TraitSnapshotModel]
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(db database.Database) SnapshotStore {
	return SnapshotStore{
		Repository: database.NewRepository[trait.Snapshot, TraitSnapshotModel](db, snapshotMapper{}, "trait snapshot"),
	}
}

// Save appends a snapshot. Any id on s is ignored.
func (s SnapshotStore) Save(ctx context.Context, snap trait.Snapshot) (trait.Snapshot, error) {
	if snap.UserID <= 0 {
		return trait.Snapshot{}, errs.Validationf("user_id must be positive")
	}
	snap.ID = 0
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	return s.Create(ctx, snap)
}

// Latest returns the user's newest snapshot.
func (s SnapshotStore) Latest(ctx context.Context, userID int64) (trait.Snapshot, error) {
	return s.FindOne(ctx, repository.WithUserID(userID), repository.WithOrderDesc("id"))
}

// History returns up to limit snapshots for the user, newest first.
func (s SnapshotStore) History(ctx context.Context, userID int64, limit int) ([]trait.Snapshot, error) {
	return s.Find(ctx, repository.WithUserID(userID), repository.WithOrderDesc("id"), repository.WithLimit(limit))
}

var _ trait.SnapshotStore = SnapshotStore{}
