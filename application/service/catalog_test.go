package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/infrastructure/retrieval"
	"github.com/helixml/careerpath/internal/testdb"
)

type textEmbedder struct{ texts []string }

func (e *textEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	e.texts = append(e.texts, text)
	return []float64{3, 4}, nil
}

func TestCatalog_Index(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewCareerStore(testdb.New(t))
	index := retrieval.NewFlatIndex()
	emb := &textEmbedder{}
	cat := NewCatalog(store, emb, index, testLogger())

	n, err := cat.Index(ctx, []career.Career{
		{ID: "chef", Title: "Chef", Description: "Cooks food"},
		{ID: "pilot", Embedding: []float64{0, 2}},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"Chef. Cooks food"}, emb.texts)
	assert.Equal(t, 2, index.Size())

	got, err := cat.Get(ctx, "chef")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.6, got[0].Embedding[0], 1e-9)
	assert.InDelta(t, 0.8, got[0].Embedding[1], 1e-9)

	_, err = cat.Index(ctx, []career.Career{{ID: "pilot", Embedding: []float64{1, 0}}}, false)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = cat.Index(ctx, []career.Career{{ID: "pilot", Embedding: []float64{1, 0}}}, true)
	require.NoError(t, err)
	got, err = cat.Get(ctx, "pilot")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got[0].Embedding)
}

func TestCatalog_IndexRejectsBadCareers(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(persistence.NewCareerStore(testdb.New(t)), nil, nil, testLogger())

	_, err := cat.Index(ctx, []career.Career{{Title: "No id"}}, false)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = cat.Index(ctx, []career.Career{{ID: "x"}}, false)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = cat.Index(ctx, []career.Career{{ID: "x", Title: "Needs encoder"}}, false)
	assert.ErrorIs(t, err, errs.ErrModelUnavailable)
	_, err = cat.Index(ctx, []career.Career{{ID: "x", Embedding: []float64{math.NaN()}}}, false)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
