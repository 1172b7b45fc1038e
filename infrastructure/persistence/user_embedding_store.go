package persistence

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/repository"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/internal/database"
)

// UserEmbeddingStore implements trait.EmbeddingStore.
type UserEmbeddingStore struct {
	database.Repository[trait.UserEmbedding, UserEmbeddingModel]
}

// NewUserEmbeddingStore creates a UserEmbeddingStore.
func NewUserEmbeddingStore(db database.Database) UserEmbeddingStore {
	return UserEmbeddingStore{
		Repository: database.NewRepository[trait.UserEmbedding, UserEmbeddingModel](db, userEmbeddingMapper{}, "user embedding"),
	}
}

// Upsert replaces the user's embedding.
func (s UserEmbeddingStore) Upsert(ctx context.Context, e trait.UserEmbedding) error {
	if e.UserID <= 0 {
		return errs.Validationf("user_id must be positive")
	}
	if len(e.Vector) == 0 {
		return errs.Validationf("embedding is empty")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	model := userEmbeddingMapper{}.ToModel(e)
	return s.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "lang", "updated_at"}),
	}).Create(&model).Error
}

// Get returns the user's embedding.
func (s UserEmbeddingStore) Get(ctx context.Context, userID int64) (trait.UserEmbedding, error) {
	return s.FindOne(ctx, repository.WithUserID(userID))
}

var _ trait.EmbeddingStore = UserEmbeddingStore{}
