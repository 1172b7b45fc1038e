package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/domain/repository"
	"github.com/helixml/careerpath/internal/database"
)

const appendBatchSize = 200

// EventStore implements interaction.EventStore. Rows are only ever
// inserted.
type EventStore struct {
	db   database.Database
	repo database.Repository[interaction.Event, CareerEventModel]
}

// NewEventStore creates an EventStore.
func NewEventStore(db database.Database) EventStore {
	return EventStore{
		db:   db,
		repo: database.NewRepository[interaction.Event, CareerEventModel](db, eventMapper{}, "career event"),
	}
}

// Append validates and inserts events in one transaction. Missing ids get
// a time-ordered UUID; missing timestamps get the current time.
func (s EventStore) Append(ctx context.Context, events ...interaction.Event) ([]interaction.Event, error) {
	if len(events) == 0 {
		return []interaction.Event{}, nil
	}

	now := time.Now().UTC()
	models := make([]CareerEventModel, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if e.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("generate event id: %w", err)
			}
			e.ID = id.String()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		e.Timestamp = e.Timestamp.UTC()
		models[i] = eventMapper{}.ToModel(e)
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, appendBatchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}

	out := make([]interaction.Event, len(models))
	for i, m := range models {
		out[i] = eventMapper{}.ToDomain(m)
	}
	return out, nil
}

// Find returns matching events, oldest first unless options order them.
func (s EventStore) Find(ctx context.Context, options ...repository.Option) ([]interaction.Event, error) {
	if len(repository.Build(options...).Orders()) == 0 {
		options = append(options, repository.WithOrderAsc("ts"), repository.WithOrderAsc("id"))
	}
	return s.repo.Find(ctx, options...)
}

// Count returns the number of matching events.
func (s EventStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}

var _ interaction.EventStore = EventStore{}
