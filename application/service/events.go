package service

import (
	"context"
	"log/slog"

	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/domain/repository"
)

// Events records user feedback on exposed careers.
type Events struct {
	store  interaction.EventStore
	logger *slog.Logger
}

// NewEvents creates an Events service.
func NewEvents(store interaction.EventStore, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{store: store, logger: logger}
}

// Record validates and appends one event.
func (s *Events) Record(ctx context.Context, e interaction.Event) (interaction.Event, error) {
	stored, err := s.store.Append(ctx, e)
	if err != nil {
		return interaction.Event{}, err
	}
	s.logger.DebugContext(ctx, "career event recorded",
		slog.String("id", stored[0].ID),
		slog.String("type", string(stored[0].Type)),
		slog.String("job_id", stored[0].JobID),
	)
	return stored[0], nil
}

// Find returns matching events, oldest first.
func (s *Events) Find(ctx context.Context, options ...repository.Option) ([]interaction.Event, error) {
	return s.store.Find(ctx, options...)
}
