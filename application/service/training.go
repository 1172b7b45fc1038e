package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/domain/repository"
)

// Training turns the event log into ranker training pairs.
type Training struct {
	events        interaction.EventStore
	catalog       career.Store
	negativeRatio int
	seed          uint64
	logger        *slog.Logger
}

// NewTraining creates a Training service. catalog may be nil, in which case
// negatives are drawn from the jobs seen in the events.
func NewTraining(events interaction.EventStore, catalog career.Store, negativeRatio int, seed uint64, logger *slog.Logger) *Training {
	if logger == nil {
		logger = slog.Default()
	}
	return &Training{
		events:        events,
		catalog:       catalog,
		negativeRatio: negativeRatio,
		seed:          seed,
		logger:        logger,
	}
}

// Pairs builds training pairs from the events matching options.
func (t *Training) Pairs(ctx context.Context, options ...repository.Option) ([]interaction.TrainingPair, error) {
	events, err := t.events.Find(ctx, append(options, repository.WithKnownUser())...)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	opts := []interaction.PairOption{interaction.WithSeed(t.seed)}
	if t.catalog != nil {
		ids, err := t.catalog.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if len(ids) > 0 {
			opts = append(opts, interaction.WithCatalog(ids))
		}
	}
	return interaction.BuildPairs(events, t.negativeRatio, opts...), nil
}

// Export writes the pairs to w as JSON lines and returns how many were
// written.
func (t *Training) Export(ctx context.Context, w io.Writer, options ...repository.Option) (int, error) {
	pairs, err := t.Pairs(ctx, options...)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	positives := 0
	for i, p := range pairs {
		if err := enc.Encode(p); err != nil {
			return i, fmt.Errorf("write pair %d: %w", i, err)
		}
		positives += p.Label
	}

	t.logger.InfoContext(ctx, "training pairs exported",
		slog.Int("pairs", len(pairs)),
		slog.Int("positives", positives),
		slog.Int("negative_ratio", t.negativeRatio),
	)
	return len(pairs), nil
}
