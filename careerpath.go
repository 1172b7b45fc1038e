// Package careerpath recommends careers from personality traits.
//
// An essay is normalized and encoded into an embedding plus RIASEC and Big
// Five scores, fused with questionnaire results, and used to retrieve
// candidate careers. A learned pairwise ranker orders the candidates and a
// bandit policy picks what the user sees. Feedback events close the loop.
//
// Basic usage:
//
//	client, err := careerpath.New(careerpath.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	_, _, err = client.Traits.SaveEssay(ctx, userID, essayText, "auto")
//	items, err := client.Recommend.TopCareers(ctx, userID, 10, sessionID)
package careerpath

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/helixml/careerpath/application/service"
	"github.com/helixml/careerpath/domain/bandit"
	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/infrastructure/encoder"
	"github.com/helixml/careerpath/infrastructure/inference"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/infrastructure/ranker"
	"github.com/helixml/careerpath/infrastructure/retrieval"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/database"
	"github.com/helixml/careerpath/internal/device"
	"github.com/helixml/careerpath/internal/log"
)

// ErrClientClosed is returned when closing a closed client.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point. Every model is loaded at construction;
// a missing or broken model fails New.
//
// Access services via struct fields:
//
//	client.Traits.Infer(ctx, text, "auto")
//	client.Recommend.TopCareers(ctx, userID, 10, "")
//	client.Events.Record(ctx, event)
type Client struct {
	Traits    *service.Traits
	Recommend *service.Recommend
	Events    *service.Events
	Training  *service.Training
	Catalog   *service.Catalog

	db       database.Database
	registry *encoder.Registry
	encoder  *encoder.Encoder
	ranker   *ranker.Ranker
	index    retrieval.Index
	refresh  *service.ModelRefresh
	closers  []io.Closer

	cfg    config.AppConfig
	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a Client, loading every model, and starts model refresh.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}
	cfg := cc.app

	logger := cc.logger
	if logger == nil {
		logger = log.NewLogger(cfg)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}

	c := &Client{db: db, cfg: cfg, logger: logger, closers: cc.closers}
	if err := c.build(ctx, cc); err != nil {
		return nil, errors.Join(err, c.release())
	}

	c.refresh.Start(ctx)
	return c, nil
}

func (c *Client) build(ctx context.Context, cc *clientConfig) error {
	cfg, logger := c.cfg, c.logger
	dev := device.New("model", cfg.DeviceConcurrency(), logger)

	remote := cc.remote
	if remote == nil && cfg.InferenceURL() != "" {
		cache := inference.NewCache(filepath.Join(cfg.DataDir(), "inference-cache"))
		remote = inference.NewClient(cfg.InferenceURL(), cfg.InferenceTimeout(), inference.WithCache(cache))
	}

	var dim int
	if remote == nil {
		enc, registry, err := encoder.Open(cfg, dev, logger)
		if err != nil {
			return fmt.Errorf("load encoder: %w", err)
		}
		c.encoder, c.registry = enc, registry
		dim = enc.Dim(essay.LanguageAuto)
	} else {
		d, err := ranker.ArtifactDim(cfg.RankerDir())
		if err != nil {
			return fmt.Errorf("ranker dimension: %w", err)
		}
		dim = d
	}

	snapshots := persistence.NewSnapshotStore(c.db)
	embeddings := persistence.NewUserEmbeddingStore(c.db)
	careers := persistence.NewCareerStore(c.db)
	events := persistence.NewEventStore(c.db)

	if c.db.IsPostgres() {
		idx, err := retrieval.NewPgVectorIndex(ctx, c.db, dim, logger)
		if err != nil {
			return fmt.Errorf("pgvector index: %w", err)
		}
		c.index = idx
	} else {
		c.index = retrieval.NewFlatIndex()
	}
	if err := c.index.Load(ctx, careers); err != nil {
		return fmt.Errorf("load career index: %w", err)
	}

	traitOpts := []service.TraitsOption{service.WithTraitsLogger(logger)}
	if remote != nil {
		traitOpts = append(traitOpts, service.WithRemoteInference(remote))
	}
	var essayEncoder service.EssayEncoder
	if c.encoder != nil {
		essayEncoder = c.encoder
	}
	c.Traits = service.NewTraits(essay.NewNormalizer(cfg.EssayMinLength()), essayEncoder, snapshots, embeddings, traitOpts...)

	rankOpts := []ranker.Option{
		ranker.WithUserSource(c.Traits),
		ranker.WithCareerStore(careers),
		ranker.WithDevice(dev),
		ranker.WithSeed(cfg.RankerSeed()),
		ranker.WithStrict(cfg.StrictRankerLoad()),
		ranker.WithCacheSize(cfg.RankerCacheSize()),
		ranker.WithLogger(logger),
	}
	var textEmbedder service.TextEmbedder
	if c.encoder != nil {
		rankOpts = append(rankOpts, ranker.WithEmbedder(c.encoder))
		textEmbedder = c.encoder
	}
	c.ranker = ranker.New(dim, rankOpts...)
	if _, err := c.ranker.Refresh(cfg.RankerDir()); err != nil {
		return fmt.Errorf("load ranker: %w", err)
	}

	policy, err := bandit.NewPolicy(bandit.Config{Name: "epsilon_greedy", Epsilon: cfg.BanditEpsilon()})
	if err != nil {
		return fmt.Errorf("bandit policy: %w", err)
	}

	retriever := retrieval.NewRetriever(c.index, logger)
	recOpts := []service.RecommendOption{
		service.WithRetrievalTopN(cfg.RetrievalTopN()),
		service.WithDefaultTopK(cfg.DefaultTopK()),
		service.WithEventStore(events),
		service.WithCatalog(careers),
		service.WithRecommendLogger(logger),
	}
	if cc.rand != nil {
		recOpts = append(recOpts, service.WithRandSource(cc.rand))
	}
	c.Recommend = service.NewRecommend(c.Traits, retriever, c.ranker, bandit.NewSelector(policy), recOpts...)
	c.Events = service.NewEvents(events, logger)
	c.Training = service.NewTraining(events, careers, cfg.NegativeRatio(), cfg.PairSeed(), logger)
	c.Catalog = service.NewCatalog(careers, textEmbedder, c.index, logger)
	c.refresh = service.NewModelRefresh(cfg.ModelRefresh(), cfg.RankerDir(), c.ranker, c.index, careers, logger)

	logger.Info("careerpath models loaded",
		slog.Int("dim", dim),
		slog.Int("careers", c.index.Size()),
		slog.String("ranker", c.ranker.Current().Version),
		slog.Bool("remote_inference", remote != nil),
	)
	return nil
}

// Health describes the loaded models.
type Health struct {
	EncoderLanguages []string
	IndexSize        int
	RankerVersion    string
}

// Health reports what is currently loaded.
func (c *Client) Health() Health {
	h := Health{EncoderLanguages: []string{}}
	if c.registry != nil {
		for _, l := range c.registry.Languages() {
			h.EncoderLanguages = append(h.EncoderLanguages, string(l))
		}
	}
	if c.index != nil {
		h.IndexSize = c.index.Size()
	}
	if c.ranker != nil {
		if a := c.ranker.Current(); a != nil {
			h.RankerVersion = a.Version
		}
	}
	return h
}

// RefreshModels runs one model refresh poll immediately.
func (c *Client) RefreshModels(ctx context.Context) {
	c.refresh.Refresh(ctx)
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.AppConfig {
	return c.cfg
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Close stops model refresh and releases models and the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refresh != nil {
		c.refresh.Stop()
	}
	if err := c.release(); err != nil {
		return err
	}
	c.logger.Info("careerpath client closed")
	return nil
}

func (c *Client) release() error {
	var errs []error
	if c.registry != nil {
		if err := c.registry.Close(); err != nil {
			c.logger.Error("failed to close encoder", slog.Any("error", err))
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
