package ranker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/internal/device"
)

// DefaultCacheSize bounds the item text embedding cache.
const DefaultCacheSize = 1024

// UserSource supplies live user features. It returns errs.ErrNotFound for
// users it knows nothing about.
type UserSource interface {
	UserFeatures(ctx context.Context, userID int64) (UserFeatures, error)
}

// Embedder embeds free text into the ranker's embedding space.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Ranker scores candidate careers for a user with the current artifact.
// The artifact is swapped atomically on reload.
type Ranker struct {
	dim      int
	seed     uint64
	strict   bool
	users    UserSource
	careers  career.Store
	embedder Embedder
	device   *device.Device
	cache    *lru.Cache[string, []float64]
	logger   *slog.Logger

	current atomic.Pointer[Artifact]
	reload  sync.Mutex
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithUserSource sets the live user feature source.
func WithUserSource(s UserSource) Option { return func(r *Ranker) { r.users = s } }

// WithCareerStore sets the catalog used for items missing from the mapping.
func WithCareerStore(s career.Store) Option { return func(r *Ranker) { r.careers = s } }

// WithEmbedder sets the encoder for text-only feature rows.
func WithEmbedder(e Embedder) Option { return func(r *Ranker) { r.embedder = e } }

// WithDevice sets the device the forward pass runs on.
func WithDevice(d *device.Device) Option { return func(r *Ranker) { r.device = d } }

// WithSeed sets the initialization seed for parameters that fail to load.
func WithSeed(seed uint64) Option { return func(r *Ranker) { r.seed = seed } }

// WithStrict makes partial loads fail instead of warn.
func WithStrict(strict bool) Option { return func(r *Ranker) { r.strict = strict } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Ranker) { r.logger = l } }

// WithCacheSize sets the item embedding cache size.
func WithCacheSize(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.cache, _ = lru.New[string, []float64](n)
		}
	}
}

// New creates a Ranker for embedding dimension dim. It has no model until
// Reload or Refresh succeeds.
func New(dim int, opts ...Option) *Ranker {
	r := &Ranker{dim: dim, seed: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache, _ = lru.New[string, []float64](DefaultCacheSize)
	}
	if r.device == nil {
		r.device = device.New("ranker", 1, r.logger)
	}
	return r
}

// Dim returns the embedding dimension the ranker expects.
func (r *Ranker) Dim() int { return r.dim }

// Current returns the loaded artifact, or nil.
func (r *Ranker) Current() *Artifact { return r.current.Load() }

// Reload loads the artifact in dir and swaps it in. A partial load is
// logged, or returned as *PartialLoadWarning without swapping in strict mode.
func (r *Ranker) Reload(dir string) (*Artifact, error) {
	r.reload.Lock()
	defer r.reload.Unlock()
	return r.reloadLocked(dir)
}

func (r *Ranker) reloadLocked(dir string) (*Artifact, error) {
	a, err := LoadArtifact(dir, r.dim, r.seed)
	if err != nil {
		return nil, err
	}
	if a.Warning != nil {
		if r.strict {
			return nil, a.Warning
		}
		r.logger.Warn("ranker loaded partially",
			"path", a.Warning.Path,
			"skipped", a.Warning.Skipped,
			"unexpected", a.Warning.Unexpected,
		)
	}
	r.current.Store(a)
	r.logger.Info("ranker artifact loaded",
		"dir", a.Dir,
		"version", a.Version,
		"users", len(a.Users),
		"items", len(a.Items),
	)
	return a, nil
}

// Refresh resolves the newest artifact under root and loads it when it
// differs from the current one or its weights changed since loading.
func (r *Ranker) Refresh(root string) (bool, error) {
	r.reload.Lock()
	defer r.reload.Unlock()

	dir, err := ResolveArtifactDir(root)
	if err != nil {
		return false, err
	}
	if cur := r.current.Load(); cur != nil && cur.Dir == dir {
		info, statErr := os.Stat(resolve(dir, cur.Config.ModelFile))
		if statErr == nil && !info.ModTime().After(cur.LoadedAt) {
			return false, nil
		}
	}
	if _, err := r.reloadLocked(dir); err != nil {
		return false, err
	}
	return true, nil
}

// Score ranks jobIDs for userID, descending. Job ids without features are
// dropped; if every id is dropped the result is empty.
func (r *Ranker) Score(ctx context.Context, userID int64, jobIDs []string) ([]career.RankedItem, error) {
	a := r.current.Load()
	if a == nil {
		return nil, errs.ModelUnavailable("ranker", errors.New("no artifact loaded"))
	}
	user, err := r.userFeatures(ctx, a, userID)
	if err != nil {
		return nil, err
	}
	return r.score(ctx, a, user, jobIDs)
}

// ScoreFeatures ranks jobIDs for explicit user features.
func (r *Ranker) ScoreFeatures(ctx context.Context, user UserFeatures, jobIDs []string) ([]career.RankedItem, error) {
	a := r.current.Load()
	if a == nil {
		return nil, errs.ModelUnavailable("ranker", errors.New("no artifact loaded"))
	}
	u, err := NewUserFeatures(user.Text, user.Embedding, user.RIASEC, user.BigFive, r.dim)
	if err != nil {
		return nil, errs.Validationf("user features: %s", err)
	}
	return r.score(ctx, a, u, jobIDs)
}

func (r *Ranker) score(ctx context.Context, a *Artifact, user UserFeatures, jobIDs []string) ([]career.RankedItem, error) {
	items, err := r.itemFeatures(ctx, a, jobIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []career.RankedItem{}, nil
	}

	rows := make([][]float64, len(items))
	for i, it := range items {
		rows[i] = Row(user, it.features)
	}

	scores, err := device.Do(ctx, r.device, func(context.Context) ([]float64, error) {
		return a.Model.ForwardBatch(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("ranker forward: %w", err)
	}

	out := make([]career.RankedItem, len(items))
	for i, it := range items {
		out[i] = career.RankedItem{JobID: it.id, Score: scores[i]}
	}
	career.SortRanked(out)
	return out, nil
}

func (r *Ranker) userFeatures(ctx context.Context, a *Artifact, userID int64) (UserFeatures, error) {
	if r.users != nil {
		u, err := r.users.UserFeatures(ctx, userID)
		if err == nil {
			return NewUserFeatures(u.Text, u.Embedding, u.RIASEC, u.BigFive, r.dim)
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return UserFeatures{}, err
		}
	}

	u, ok := a.Users[userID]
	if !ok {
		return UserFeatures{}, fmt.Errorf("%w: no features for user %d", errs.ErrNotFound, userID)
	}
	if u.Embedding == nil {
		emb, err := r.embed(ctx, u.Text)
		if err != nil {
			return UserFeatures{}, err
		}
		u.Embedding = emb
	}
	return NewUserFeatures(u.Text, u.Embedding, u.RIASEC, u.BigFive, r.dim)
}

type scoredItem struct {
	id       string
	features ItemFeatures
}

// itemFeatures resolves features in input order, skipping duplicates and
// ids that neither the mapping nor the catalog knows.
func (r *Ranker) itemFeatures(ctx context.Context, a *Artifact, jobIDs []string) ([]scoredItem, error) {
	seen := make(map[string]bool, len(jobIDs))
	resolved := make(map[string]ItemFeatures, len(jobIDs))
	var missing []string

	for _, id := range jobIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		it, ok := a.Items[id]
		if !ok || (it.Embedding == nil && (it.Text == "" || r.embedder == nil)) {
			missing = append(missing, id)
			continue
		}
		if it.Embedding == nil {
			emb, err := r.embed(ctx, it.Text)
			if err != nil {
				return nil, err
			}
			it.Embedding = emb
		}
		resolved[id] = it
	}

	if len(missing) > 0 && r.careers != nil {
		careers, err := r.careers.Get(ctx, missing...)
		if err != nil {
			return nil, fmt.Errorf("load careers: %w", err)
		}
		for _, c := range careers {
			it, err := NewItemFeatures(c.Text(), c.Embedding, c.RIASEC, r.dim)
			if err != nil {
				r.logger.WarnContext(ctx, "career has unusable features", "job_id", c.ID, "error", err)
				continue
			}
			resolved[c.ID] = it
		}
	}

	out := make([]scoredItem, 0, len(resolved))
	var dropped []string
	for id := range seen {
		if _, ok := resolved[id]; !ok {
			dropped = append(dropped, id)
		}
	}
	for _, id := range jobIDs {
		it, ok := resolved[id]
		if !ok {
			continue
		}
		delete(resolved, id)
		out = append(out, scoredItem{id: id, features: it})
	}
	if len(dropped) > 0 {
		r.logger.WarnContext(ctx, "dropping unknown job ids from ranking", "job_ids", sortedOrEmpty(dropped))
	}
	return out, nil
}

func (r *Ranker) embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" || r.embedder == nil {
		return make([]float64, r.dim), nil
	}
	if v, ok := r.cache.Get(text); ok {
		return v, nil
	}
	v, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed feature text: %w", err)
	}
	if len(v) != r.dim {
		return nil, errs.ModelUnavailable("ranker", fmt.Errorf("text embedding has %d values, ranker expects %d", len(v), r.dim))
	}
	r.cache.Add(text, v)
	return v, nil
}
