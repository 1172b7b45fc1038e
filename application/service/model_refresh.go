package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/infrastructure/retrieval"
	"github.com/helixml/careerpath/internal/config"
)

// ArtifactRefresher reloads the ranker when a newer artifact appears.
type ArtifactRefresher interface {
	Refresh(root string) (bool, error)
}

// ModelRefresh polls the ranker artifact directory and the career catalog
// on a timer and hot-swaps whatever changed.
type ModelRefresh struct {
	ranker   ArtifactRefresher
	index    retrieval.Index
	careers  career.Store
	root     string
	logger   *slog.Logger
	interval time.Duration
	enabled  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewModelRefresh creates a new ModelRefresh from config and dependencies.
func NewModelRefresh(
	cfg config.ModelRefreshConfig,
	root string,
	ranker ArtifactRefresher,
	index retrieval.Index,
	careers career.Store,
	logger *slog.Logger,
) *ModelRefresh {
	return &ModelRefresh{
		ranker:   ranker,
		index:    index,
		careers:  careers,
		root:     root,
		logger:   logger,
		interval: cfg.Interval(),
		enabled:  cfg.Enabled(),
	}
}

// Start begins polling in a background goroutine.
// If disabled, this is a no-op.
func (m *ModelRefresh) Start(ctx context.Context) {
	if !m.enabled {
		m.logger.Info("model refresh disabled")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Go(func() {
		m.run(ctx)
	})

	m.logger.Info("model refresh started", slog.Duration("interval", m.interval))
}

// Stop cancels the background goroutine and waits for it to finish.
func (m *ModelRefresh) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.logger.Info("model refresh stopped")
}

func (m *ModelRefresh) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh(ctx)
		}
	}
}

// Refresh runs one poll. Failures are logged and the current models stay
// in place.
func (m *ModelRefresh) Refresh(ctx context.Context) {
	if m.ranker != nil && m.root != "" {
		swapped, err := m.ranker.Refresh(m.root)
		switch {
		case err != nil:
			m.logger.Warn("ranker refresh failed", slog.String("root", m.root), slog.String("error", err.Error()))
		case swapped:
			m.logger.Info("ranker refreshed", slog.String("root", m.root))
		}
	}

	if m.index == nil || m.careers == nil {
		return
	}
	ids, err := m.careers.IDs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("career index refresh failed", slog.String("error", err.Error()))
		}
		return
	}
	if len(ids) == m.index.Size() {
		return
	}
	if err := m.index.Load(ctx, m.careers); err != nil {
		m.logger.Warn("career index reload failed", slog.String("error", err.Error()))
		return
	}
	m.logger.Info("career index reloaded", slog.Int("size", m.index.Size()))
}
