package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/helixml/careerpath/domain/bandit"
	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/interaction"
	"github.com/helixml/careerpath/infrastructure/retrieval"
)

// Defaults for recommendation requests.
const (
	DefaultRetrievalTopN = 100
	DefaultTopK          = 10
	MaxTopK              = 100
)

// Scorer ranks candidate ids for a user.
type Scorer interface {
	Score(ctx context.Context, userID int64, jobIDs []string) ([]career.RankedItem, error)
}

// UserVectors looks up a user's stored embedding; nil means cold start.
type UserVectors interface {
	Embedding(ctx context.Context, userID int64) ([]float64, error)
}

// RandSource returns the randomness used for one selection.
type RandSource func() *rand.Rand

// RecommendOption configures a Recommend service.
type RecommendOption func(*Recommend)

// WithRandSource injects the bandit's randomness.
func WithRandSource(src RandSource) RecommendOption {
	return func(r *Recommend) { r.rand = src }
}

// WithRetrievalTopN sets how many candidates retrieval hands to the ranker.
func WithRetrievalTopN(n int) RecommendOption {
	return func(r *Recommend) {
		if n > 0 {
			r.topN = n
		}
	}
}

// WithDefaultTopK sets the list length used when a request has none.
func WithDefaultTopK(n int) RecommendOption {
	return func(r *Recommend) {
		if n > 0 {
			r.defaultTopK = n
		}
	}
}

// WithEventStore records exposed items as impressions.
func WithEventStore(s interaction.EventStore) RecommendOption {
	return func(r *Recommend) { r.events = s }
}

// WithCatalog lets Rank fall back to the catalog for cold-start users.
func WithCatalog(s career.Store) RecommendOption {
	return func(r *Recommend) { r.catalog = s }
}

// WithRecommendLogger sets the logger.
func WithRecommendLogger(l *slog.Logger) RecommendOption {
	return func(r *Recommend) {
		if l != nil {
			r.logger = l
		}
	}
}

// Recommend runs retrieval, ranking and bandit selection.
type Recommend struct {
	users     UserVectors
	retriever *retrieval.Retriever
	ranker    Scorer
	selector  *bandit.Selector
	events    interaction.EventStore
	catalog   career.Store
	rand      RandSource

	topN        int
	defaultTopK int
	logger      *slog.Logger
}

// NewRecommend creates a Recommend service.
func NewRecommend(
	users UserVectors,
	retriever *retrieval.Retriever,
	ranker Scorer,
	selector *bandit.Selector,
	opts ...RecommendOption,
) *Recommend {
	r := &Recommend{
		users:       users,
		retriever:   retriever,
		ranker:      ranker,
		selector:    selector,
		topN:        DefaultRetrievalTopN,
		defaultTopK: DefaultTopK,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recommend) topK(k int) (int, error) {
	switch {
	case k == 0:
		return r.defaultTopK, nil
	case k < 0 || k > MaxTopK:
		return 0, errs.Validationf("top_k must be within [1,%d], got %d", MaxTopK, k)
	}
	return k, nil
}

func (r *Recommend) candidates(ctx context.Context, userID int64) ([]career.Candidate, error) {
	vec, err := r.users.Embedding(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.retriever.Retrieve(ctx, vec, r.topN)
}

// Rank scores the user's retrieval candidates and returns the best topK
// without exploration. Users without an embedding are ranked over the
// catalog instead.
func (r *Recommend) Rank(ctx context.Context, userID int64, topK int) ([]career.RankedItem, error) {
	k, err := r.topK(topK)
	if err != nil {
		return nil, err
	}
	cands, err := r.candidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := career.CandidateIDs(cands)
	if len(ids) == 0 && r.catalog != nil {
		all, err := r.catalog.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		ids = all[:min(len(all), r.topN)]
	}
	if len(ids) == 0 {
		return []career.RankedItem{}, nil
	}

	ranked, err := r.ranker.Score(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	return ranked[:min(len(ranked), k)], nil
}

// TopCareers returns the careers to show the user. Empty retrieval is
// errs.ErrRetrievalEmpty and the ranker is not called; a ranker that drops
// every candidate is errs.ErrRankingEmpty. Exposed items are logged as
// impressions.
func (r *Recommend) TopCareers(ctx context.Context, userID int64, topK int, sessionID string) ([]career.FinalItem, error) {
	k, err := r.topK(topK)
	if err != nil {
		return nil, err
	}
	cands, err := r.candidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: user %d", errs.ErrRetrievalEmpty, userID)
	}

	ranked, err := r.ranker.Score(ctx, userID, career.CandidateIDs(cands))
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: %d candidates for user %d", errs.ErrRankingEmpty, len(cands), userID)
	}

	var rng *rand.Rand
	if r.rand != nil {
		rng = r.rand()
	}
	items := r.selector.Select(ranked, userID, k, rng)
	r.logImpressions(ctx, userID, sessionID, items)
	return items, nil
}

func (r *Recommend) logImpressions(ctx context.Context, userID int64, sessionID string, items []career.FinalItem) {
	if r.events == nil || len(items) == 0 {
		return
	}
	uid := userID
	events := make([]interaction.Event, len(items))
	for i, it := range items {
		pos, score := i, it.FinalScore
		events[i] = interaction.Event{
			UserID:     &uid,
			SessionID:  sessionID,
			JobID:      it.CareerID,
			Type:       interaction.EventImpression,
			RankPos:    &pos,
			ScoreShown: &score,
		}
	}
	if _, err := r.events.Append(ctx, events...); err != nil {
		r.logger.WarnContext(ctx, "failed to log impressions",
			slog.Int64("user_id", userID),
			slog.Int("count", len(events)),
			slog.String("error", err.Error()),
		)
	}
}

// Policy describes the active bandit policy.
func (r *Recommend) Policy() bandit.Config {
	return bandit.ConfigOf(r.selector.Policy())
}

// SetPolicy replaces the bandit policy. The ranker is untouched.
func (r *Recommend) SetPolicy(ctx context.Context, c bandit.Config) (bandit.Config, error) {
	p, err := bandit.NewPolicy(c)
	if err != nil {
		return bandit.Config{}, err
	}
	r.selector.SetPolicy(p)
	cfg := bandit.ConfigOf(p)
	r.logger.InfoContext(ctx, "bandit policy changed",
		slog.String("name", cfg.Name),
		slog.Float64("epsilon", cfg.Epsilon),
		slog.Float64("temperature", cfg.Temperature),
	)
	return cfg, nil
}
