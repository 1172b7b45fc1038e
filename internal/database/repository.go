package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/repository"
	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errs.ErrNotFound

// EntityMapper converts between domain values and GORM models.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Repository provides generic persistence operations for one GORM model,
// driven by repository.Option queries.
type Repository[D any, E any] struct {
	db     Database
	mapper EntityMapper[D, E]
	label  string
}

// NewRepository creates a new Repository. label names the entity in errors.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string) Repository[D, E] {
	return Repository[D, E]{
		db:     db,
		mapper: mapper,
		label:  label,
	}
}

// Find retrieves entities matching the given options.
func (r Repository[D, E]) Find(ctx context.Context, options ...repository.Option) ([]D, error) {
	var entities []E
	if err := ApplyOptions(r.DB(ctx).Model(new(E)), options...).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}

	out := make([]D, len(entities))
	for i, entity := range entities {
		out[i] = r.mapper.ToDomain(entity)
	}
	return out, nil
}

// FindOne retrieves the first entity matching the given options.
func (r Repository[D, E]) FindOne(ctx context.Context, options ...repository.Option) (D, error) {
	var (
		entity E
		zero   D
	)
	err := ApplyOptions(r.DB(ctx), options...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
	}
	if err != nil {
		return zero, fmt.Errorf("find one %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(entity), nil
}

// Create inserts a domain value and returns it as stored, with generated
// columns populated.
func (r Repository[D, E]) Create(ctx context.Context, value D) (D, error) {
	model := r.mapper.ToModel(value)
	if err := r.DB(ctx).Create(&model).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("create %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(model), nil
}

// Exists reports whether any entity matches the given options.
func (r Repository[D, E]) Exists(ctx context.Context, options ...repository.Option) (bool, error) {
	n, err := r.Count(ctx, options...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of entities matching the given options.
func (r Repository[D, E]) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var n int64
	if err := ApplyConditions(r.DB(ctx).Model(new(E)), options...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, err)
	}
	return n, nil
}

// DeleteBy removes entities matching the given options. Without options it
// refuses to run, so a missing filter cannot wipe a table.
func (r Repository[D, E]) DeleteBy(ctx context.Context, options ...repository.Option) error {
	if len(repository.Build(options...).Conditions()) == 0 {
		return fmt.Errorf("delete %s: no conditions", r.label)
	}
	if err := ApplyOptions(r.DB(ctx), options...).Delete(new(E)).Error; err != nil {
		return fmt.Errorf("delete %s: %w", r.label, err)
	}
	return nil
}

// DB returns a GORM session bound to ctx.
func (r Repository[D, E]) DB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx)
}

// Mapper returns the entity mapper.
func (r Repository[D, E]) Mapper() EntityMapper[D, E] {
	return r.mapper
}
