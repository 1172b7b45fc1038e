package ranker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
)

const testDim = 8

func vec(seed float64) []float64 {
	out := make([]float64, testDim)
	for i := range out {
		out[i] = seed / float64(i+1)
	}
	return out
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeArtifact(t *testing.T, dir string, seed uint64) *MLP {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	model := NewMLP(InputDim(testDim), seed)
	require.NoError(t, WriteStateDict(filepath.Join(dir, DefaultModelFile), model.StateDict()))

	writeJSON(t, filepath.Join(dir, DefaultUserFeaturesFile), map[string]any{
		"1": map[string]any{"embedding": vec(1), "riasec": []float64{1, 0, 0, 0, 0, 0}, "big5": []float64{0.5, 0.5, 0.5, 0.5, 0.5}},
		"2": map[string]any{"text": "likes painting and music"},
	})
	writeJSON(t, filepath.Join(dir, DefaultItemFeaturesFile), map[string]any{
		"nurse":    map[string]any{"embedding": vec(0.5), "riasec": []float64{0, 0, 0, 1, 0, 0}},
		"engineer": map[string]any{"embedding": vec(-0.5)},
		"artist":   map[string]any{"text": "creates visual art"},
	})
	return model
}

type countingEmbedder struct {
	calls atomic.Int64
}

func (e *countingEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	return vec(float64(len(text)) / 10), nil
}

type catalogStore struct {
	careers map[string]career.Career
}

func (s catalogStore) Insert(context.Context, ...career.Career) error  { return nil }
func (s catalogStore) Replace(context.Context, ...career.Career) error { return nil }
func (s catalogStore) IDs(context.Context) ([]string, error)          { return nil, nil }
func (s catalogStore) Embeddings(context.Context) ([]career.Embedding, error) {
	return nil, nil
}
func (s catalogStore) Get(_ context.Context, ids ...string) ([]career.Career, error) {
	var out []career.Career
	for _, id := range ids {
		if c, ok := s.careers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestRanker_Score(t *testing.T) {
	dir := t.TempDir()
	model := writeArtifact(t, dir, 5)

	r := New(testDim)
	_, err := r.Reload(dir)
	require.NoError(t, err)

	got, err := r.Score(context.Background(), 1, []string{"engineer", "nurse", "unknown", "nurse"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	user, err := NewUserFeatures("", vec(1), []float64{1, 0, 0, 0, 0, 0}, []float64{0.5, 0.5, 0.5, 0.5, 0.5}, testDim)
	require.NoError(t, err)
	nurse, err := NewItemFeatures("", vec(0.5), []float64{0, 0, 0, 1, 0, 0}, testDim)
	require.NoError(t, err)
	want, err := model.Forward(Row(user, nurse))
	require.NoError(t, err)

	scores := map[string]float64{}
	for _, it := range got {
		scores[it.JobID] = it.Score
	}
	assert.InDelta(t, want, scores["nurse"], 1e-12)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestRanker_AllUnknownIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5)
	r := New(testDim)
	_, err := r.Reload(dir)
	require.NoError(t, err)

	got, err := r.Score(context.Background(), 1, []string{"x", "y"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRanker_NoArtifact(t *testing.T) {
	_, err := New(testDim).Score(context.Background(), 1, []string{"nurse"})
	require.ErrorIs(t, err, errs.ErrModelUnavailable)
}

func TestRanker_UnknownUser(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5)
	r := New(testDim)
	_, err := r.Reload(dir)
	require.NoError(t, err)

	_, err = r.Score(context.Background(), 99, []string{"nurse"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRanker_TextFeaturesUseEmbedderCache(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5)
	emb := &countingEmbedder{}
	r := New(testDim, WithEmbedder(emb), WithCacheSize(8))
	_, err := r.Reload(dir)
	require.NoError(t, err)

	for range 3 {
		got, err := r.Score(context.Background(), 2, []string{"artist", "nurse"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, int64(2), emb.calls.Load(), "user text and item text are embedded once each")
}

func TestRanker_FallsBackToCatalog(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5)
	store := catalogStore{careers: map[string]career.Career{
		"pilot": {ID: "pilot", Title: "Pilot", Embedding: vec(0.2), RIASEC: []float64{0, 1, 0, 0, 0, 0}},
	}}
	r := New(testDim, WithCareerStore(store))
	_, err := r.Reload(dir)
	require.NoError(t, err)

	got, err := r.Score(context.Background(), 1, []string{"pilot", "artist"})
	require.NoError(t, err)
	require.Len(t, got, 1, "artist has only text and no embedder")
	assert.Equal(t, "pilot", got[0].JobID)
}

type liveUsers map[int64]UserFeatures

func (l liveUsers) UserFeatures(_ context.Context, id int64) (UserFeatures, error) {
	if u, ok := l[id]; ok {
		return u, nil
	}
	return UserFeatures{}, errs.ErrNotFound
}

func TestRanker_LiveUserFeaturesWin(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, 5)

	fromFile := New(testDim)
	_, err := fromFile.Reload(dir)
	require.NoError(t, err)
	live := New(testDim, WithUserSource(liveUsers{1: {Embedding: vec(-3)}}))
	_, err = live.Reload(dir)
	require.NoError(t, err)

	a, err := fromFile.Score(context.Background(), 1, []string{"nurse"})
	require.NoError(t, err)
	b, err := live.Score(context.Background(), 1, []string{"nurse"})
	require.NoError(t, err)
	assert.NotEqual(t, a[0].Score, b[0].Score)
}

func TestRanker_StrictPartialLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteStateDict(filepath.Join(dir, DefaultModelFile), NewMLP(InputDim(testDim+1), 1).StateDict()))

	_, err := New(testDim, WithStrict(true)).Reload(dir)
	var warning *PartialLoadWarning
	require.True(t, errors.As(err, &warning))
	assert.Equal(t, []string{"fc1.weight"}, warning.Skipped)

	lenient := New(testDim)
	a, err := lenient.Reload(dir)
	require.NoError(t, err)
	require.NotNil(t, a.Warning)
	assert.Same(t, a, lenient.Current())
}

func TestRanker_Refresh(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "v1"), 1)

	r := New(testDim)
	changed, err := r.Refresh(root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "v1", r.Current().Version)

	changed, err = r.Refresh(root)
	require.NoError(t, err)
	assert.False(t, changed)

	writeArtifact(t, filepath.Join(root, "v2"), 2)
	changed, err = r.Refresh(root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "v2", r.Current().Version)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "v2", DefaultModelFile), future, future))
	changed, err = r.Refresh(root)
	require.NoError(t, err)
	assert.True(t, changed)
}
