// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/infrastructure/ranker"
)

// MinEssayChars is the shortest trimmed essay accepted before
// normalization.
const MinEssayChars = 5

// EssayEncoder encodes a normalized essay.
type EssayEncoder interface {
	Encode(ctx context.Context, clean string, lang essay.Language) (trait.Encoding, error)
}

// RemoteInference runs the whole essay pipeline on another process.
type RemoteInference interface {
	Infer(ctx context.Context, raw string, lang essay.Language) (trait.Inference, error)
}

// SnapshotStore is the snapshot persistence the Traits service needs.
type SnapshotStore interface {
	trait.SnapshotStore
	History(ctx context.Context, userID int64, limit int) ([]trait.Snapshot, error)
}

// TraitsOption configures a Traits service.
type TraitsOption func(*Traits)

// WithRemoteInference sends essays to a remote inference service instead
// of the local encoder.
func WithRemoteInference(r RemoteInference) TraitsOption {
	return func(t *Traits) { t.remote = r }
}

// WithTraitsLogger sets the logger.
func WithTraitsLogger(l *slog.Logger) TraitsOption {
	return func(t *Traits) {
		if l != nil {
			t.logger = l
		}
	}
}

// Traits infers, fuses and stores user trait profiles.
type Traits struct {
	normalizer essay.Normalizer
	encoder    EssayEncoder
	remote     RemoteInference
	snapshots  SnapshotStore
	embeddings trait.EmbeddingStore
	logger     *slog.Logger
}

// NewTraits creates a Traits service. encoder may be nil when a remote
// inference service is configured.
func NewTraits(
	normalizer essay.Normalizer,
	encoder EssayEncoder,
	snapshots SnapshotStore,
	embeddings trait.EmbeddingStore,
	opts ...TraitsOption,
) *Traits {
	t := &Traits{
		normalizer: normalizer,
		encoder:    encoder,
		snapshots:  snapshots,
		embeddings: embeddings,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Infer normalizes and encodes an essay. lang may be empty or "auto".
func (t *Traits) Infer(ctx context.Context, raw string, lang string) (trait.Inference, error) {
	if n := utf8.RuneCountInString(strings.TrimSpace(raw)); n < MinEssayChars {
		return trait.Inference{}, errs.Validationf("essay_text must have at least %d characters, got %d", MinEssayChars, n)
	}
	language, err := essay.ParseLanguage(lang)
	if err != nil {
		return trait.Inference{}, err
	}

	if t.remote != nil {
		return t.remote.Infer(ctx, raw, language)
	}
	if t.encoder == nil {
		return trait.Inference{}, errs.ModelUnavailable("encoder", errors.New("no encoder configured"))
	}

	clean, err := t.normalizer.Normalize(raw)
	if err != nil {
		return trait.Inference{}, err
	}
	enc, err := t.encoder.Encode(ctx, clean, language)
	if err != nil {
		return trait.Inference{}, err
	}
	return trait.Inference{Original: raw, Clean: clean, Encoding: enc}, nil
}

// SaveEssay infers traits from an essay, fuses them with the user's latest
// questionnaire scores, stores a new snapshot and replaces the user's
// embedding.
func (t *Traits) SaveEssay(ctx context.Context, userID int64, raw string, lang string) (trait.Snapshot, trait.Inference, error) {
	if userID <= 0 {
		return trait.Snapshot{}, trait.Inference{}, errs.Validationf("user_id must be positive")
	}
	inf, err := t.Infer(ctx, raw, lang)
	if err != nil {
		return trait.Snapshot{}, trait.Inference{}, err
	}

	prev, err := t.latestOrEmpty(ctx, userID)
	if err != nil {
		return trait.Snapshot{}, trait.Inference{}, err
	}
	snap, err := t.snapshots.Save(ctx, trait.FuseSnapshot(userID, prev.Test, inf.Scores()))
	if err != nil {
		return trait.Snapshot{}, trait.Inference{}, fmt.Errorf("save snapshot: %w", err)
	}

	err = t.embeddings.Upsert(ctx, trait.UserEmbedding{
		UserID:    userID,
		Vector:    inf.Embedding,
		Language:  inf.UsedLang,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return trait.Snapshot{}, trait.Inference{}, fmt.Errorf("save user embedding: %w", err)
	}

	t.logger.InfoContext(ctx, "essay traits saved",
		slog.Int64("user_id", userID),
		slog.Int64("snapshot_id", snap.ID),
		slog.String("lang", inf.UsedLang),
	)
	return snap, inf, nil
}

// SaveTest fuses questionnaire scores with the user's latest essay scores
// and stores a new snapshot.
func (t *Traits) SaveTest(ctx context.Context, userID int64, scores trait.Scores) (trait.Snapshot, error) {
	if userID <= 0 {
		return trait.Snapshot{}, errs.Validationf("user_id must be positive")
	}
	if scores.Empty() {
		return trait.Snapshot{}, errs.Validationf("riasec or big5 is required")
	}
	if err := scores.Validate(); err != nil {
		return trait.Snapshot{}, err
	}

	prev, err := t.latestOrEmpty(ctx, userID)
	if err != nil {
		return trait.Snapshot{}, err
	}
	snap, err := t.snapshots.Save(ctx, trait.FuseSnapshot(userID, scores, prev.Essay))
	if err != nil {
		return trait.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	t.logger.InfoContext(ctx, "test traits saved", slog.Int64("user_id", userID), slog.Int64("snapshot_id", snap.ID))
	return snap, nil
}

// Latest returns the user's newest snapshot.
func (t *Traits) Latest(ctx context.Context, userID int64) (trait.Snapshot, error) {
	snap, err := t.snapshots.Latest(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return trait.Snapshot{}, fmt.Errorf("%w: no traits for user %d", errs.ErrNotFound, userID)
	}
	return snap, err
}

// History returns up to limit snapshots for the user, newest first.
func (t *Traits) History(ctx context.Context, userID int64, limit int) ([]trait.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	return t.snapshots.History(ctx, userID, limit)
}

// Embedding returns the user's stored essay embedding, or nil when the user
// has none yet.
func (t *Traits) Embedding(ctx context.Context, userID int64) ([]float64, error) {
	e, err := t.embeddings.Get(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user embedding: %w", err)
	}
	return e.Vector, nil
}

// UserFeatures builds ranker features from the latest snapshot and stored
// embedding. It returns errs.ErrNotFound when the user has neither.
func (t *Traits) UserFeatures(ctx context.Context, userID int64) (ranker.UserFeatures, error) {
	snap, snapErr := t.snapshots.Latest(ctx, userID)
	if snapErr != nil && !errors.Is(snapErr, errs.ErrNotFound) {
		return ranker.UserFeatures{}, snapErr
	}
	emb, err := t.Embedding(ctx, userID)
	if err != nil {
		return ranker.UserFeatures{}, err
	}
	if snapErr != nil && emb == nil {
		return ranker.UserFeatures{}, fmt.Errorf("%w: no features for user %d", errs.ErrNotFound, userID)
	}

	u := ranker.UserFeatures{Embedding: emb}
	if snapErr == nil {
		u.RIASEC = snap.RIASEC()
		u.BigFive = snap.BigFive()
	}
	return u, nil
}

func (t *Traits) latestOrEmpty(ctx context.Context, userID int64) (trait.Snapshot, error) {
	snap, err := t.snapshots.Latest(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return trait.Snapshot{}, nil
	}
	if err != nil {
		return trait.Snapshot{}, fmt.Errorf("load latest snapshot: %w", err)
	}
	return snap, nil
}

var _ ranker.UserSource = (*Traits)(nil)
