package service

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/infrastructure/retrieval"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/testdb"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Refresh(string) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestModelRefresh_ReloadsIndexWhenCatalogGrows(t *testing.T) {
	ctx := context.Background()
	careers := persistence.NewCareerStore(testdb.New(t))
	index := retrieval.NewFlatIndex()
	refresher := &countingRefresher{}

	m := NewModelRefresh(config.NewModelRefreshConfig(), t.TempDir(), refresher, index, careers, testLogger())

	m.Refresh(ctx)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.Zero(t, index.Size())

	require.NoError(t, careers.Insert(ctx, career.Career{ID: "x", Embedding: []float64{1, 0}}))
	m.Refresh(ctx)
	assert.Equal(t, 1, index.Size())
	assert.Equal(t, int32(2), refresher.calls.Load())
}

func TestModelRefresh_StartStop(t *testing.T) {
	refresher := &countingRefresher{}
	cfg := config.NewModelRefreshConfig().WithEnabled(true).WithIntervalSeconds(0.01)
	m := NewModelRefresh(cfg, t.TempDir(), refresher, nil, nil, testLogger())

	m.Start(context.Background())
	require.Eventually(t, func() bool { return refresher.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	after := refresher.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, refresher.calls.Load())
}

func TestModelRefresh_Disabled(t *testing.T) {
	refresher := &countingRefresher{}
	cfg := config.NewModelRefreshConfig().WithEnabled(false)
	m := NewModelRefresh(cfg, t.TempDir(), refresher, nil, nil, testLogger())

	m.Start(context.Background())
	m.Stop()
	assert.Zero(t, refresher.calls.Load())
}
