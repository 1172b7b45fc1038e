package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/repository"
	"github.com/helixml/careerpath/internal/database"
)

const saveBatchSize = 500

// CareerStore implements career.Store over the career_embeddings table.
type CareerStore struct {
	db   database.Database
	repo database.Repository[career.Career, CareerModel]
}

// NewCareerStore creates a CareerStore.
func NewCareerStore(db database.Database) CareerStore {
	return CareerStore{
		db:   db,
		repo: database.NewRepository[career.Career, CareerModel](db, careerMapper{}, "career"),
	}
}

func (s CareerStore) models(careers []career.Career) ([]CareerModel, error) {
	now := time.Now().UTC()
	seen := make(map[string]bool, len(careers))
	out := make([]CareerModel, len(careers))
	for i, c := range careers {
		if c.ID == "" {
			return nil, errs.Validationf("career %d has no id", i)
		}
		if len(c.Embedding) == 0 {
			return nil, errs.Validationf("career %s has no embedding", c.ID)
		}
		if seen[c.ID] {
			return nil, errs.Validationf("career %s appears twice", c.ID)
		}
		seen[c.ID] = true
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		out[i] = careerMapper{}.ToModel(c)
	}
	return out, nil
}

// Insert adds careers. Ids that already exist are rejected and nothing is
// written.
func (s CareerStore) Insert(ctx context.Context, careers ...career.Career) error {
	models, err := s.models(careers)
	if err != nil || len(models) == 0 {
		return err
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.CareerID
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&CareerModel{}).Where("career_id IN ?", ids).Order("career_id").Pluck("career_id", &existing).Error; err != nil {
			return fmt.Errorf("check existing careers: %w", err)
		}
		if len(existing) > 0 {
			return errs.Validationf("careers already indexed: %v", existing)
		}
		return tx.CreateInBatches(models, saveBatchSize).Error
	})
}

// Replace writes careers, overwriting rows with the same id.
func (s CareerStore) Replace(ctx context.Context, careers ...career.Career) error {
	models, err := s.models(careers)
	if err != nil || len(models) == 0 {
		return err
	}
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "career_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "riasec", "embedding", "created_at"}),
		}).CreateInBatches(models, saveBatchSize).Error
	})
}

// Get returns the careers with the given ids. Unknown ids are skipped.
func (s CareerStore) Get(ctx context.Context, ids ...string) ([]career.Career, error) {
	if len(ids) == 0 {
		return []career.Career{}, nil
	}
	return s.repo.Find(ctx, repository.WithCareerIDIn(ids), repository.WithOrderAsc("career_id"))
}

// One returns a single career or errs.ErrNotFound.
func (s CareerStore) One(ctx context.Context, id string) (career.Career, error) {
	c, err := s.repo.FindOne(ctx, repository.WithCondition("career_id", id))
	if errors.Is(err, errs.ErrNotFound) {
		return career.Career{}, fmt.Errorf("%w: career %s", errs.ErrNotFound, id)
	}
	return c, err
}

// IDs returns every id in ascending order.
func (s CareerStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.repo.DB(ctx).Model(&CareerModel{}).Order("career_id").Pluck("career_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list career ids: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Embeddings returns every indexed vector, ordered by id.
func (s CareerStore) Embeddings(ctx context.Context) ([]career.Embedding, error) {
	var rows []struct {
		CareerID  string       `gorm:"column:career_id"`
		Embedding Float64Slice `gorm:"column:embedding"`
	}
	err := s.repo.DB(ctx).Model(&CareerModel{}).Select("career_id, embedding").Order("career_id").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load career embeddings: %w", err)
	}
	out := make([]career.Embedding, len(rows))
	for i, r := range rows {
		out[i] = career.Embedding{ID: r.CareerID, Vector: r.Embedding}
	}
	return out, nil
}

// Count returns the number of indexed careers.
func (s CareerStore) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

var _ career.Store = CareerStore{}
