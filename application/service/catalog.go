package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/infrastructure/retrieval"
)

// TextEmbedder embeds free text into the retrieval space.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Catalog indexes careers for retrieval.
type Catalog struct {
	store    career.Store
	embedder TextEmbedder
	index    retrieval.Index
	logger   *slog.Logger
}

// NewCatalog creates a Catalog. index may be nil when nothing serves
// retrieval in this process.
func NewCatalog(store career.Store, embedder TextEmbedder, index retrieval.Index, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, embedder: embedder, index: index, logger: logger}
}

// Index embeds careers that carry no vector, normalizes every vector and
// stores them. Existing ids are rejected unless replace is set. The
// retrieval index is reloaded afterwards.
func (c *Catalog) Index(ctx context.Context, careers []career.Career, replace bool) (int, error) {
	if len(careers) == 0 {
		return 0, nil
	}

	prepared := make([]career.Career, len(careers))
	for i, cr := range careers {
		cr.ID = strings.TrimSpace(cr.ID)
		if cr.ID == "" {
			return 0, errs.Validationf("career %d has no id", i)
		}
		if len(cr.Embedding) == 0 {
			if strings.TrimSpace(cr.Text()) == "" {
				return 0, errs.Validationf("career %s has neither text nor embedding", cr.ID)
			}
			if c.embedder == nil {
				return 0, errs.ModelUnavailable("encoder", fmt.Errorf("career %s needs embedding", cr.ID))
			}
			v, err := c.embedder.EmbedText(ctx, cr.Text())
			if err != nil {
				return 0, fmt.Errorf("embed career %s: %w", cr.ID, err)
			}
			cr.Embedding = v
		}
		if !trait.Finite(cr.Embedding) {
			return 0, errs.Validationf("career %s has a non-finite embedding", cr.ID)
		}
		cr.Embedding = trait.L2Normalize(cr.Embedding)
		prepared[i] = cr
	}

	store := c.store.Insert
	if replace {
		store = c.store.Replace
	}
	if err := store(ctx, prepared...); err != nil {
		return 0, err
	}

	if c.index != nil {
		if err := c.index.Load(ctx, c.store); err != nil {
			return len(prepared), fmt.Errorf("reload index: %w", err)
		}
	}
	c.logger.InfoContext(ctx, "careers indexed", slog.Int("count", len(prepared)), slog.Bool("replace", replace))
	return len(prepared), nil
}

// IDs returns every indexed career id.
func (c *Catalog) IDs(ctx context.Context) ([]string, error) {
	return c.store.IDs(ctx)
}

// Get returns careers by id.
func (c *Catalog) Get(ctx context.Context, ids ...string) ([]career.Career, error) {
	return c.store.Get(ctx, ids...)
}
