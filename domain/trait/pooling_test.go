package trait

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestMeanPool_IgnoresPadding(t *testing.T) {
	hidden := [][]float64{
		{1, 2},
		{3, 4},
		{100, 100},
	}

	got := MeanPool(hidden, []float64{1, 1, 0}, 2)

	assert.Equal(t, []float64{2, 3}, got)
}

func TestMeanPool_AllOnesMaskIsColumnMean(t *testing.T) {
	hidden := [][]float64{
		{1, -2, 0.5},
		{3, 4, 0.5},
		{5, 1, -1},
		{-1, 0, 2},
	}

	got := MeanPool(hidden, []float64{1, 1, 1, 1}, 3)

	want := []float64{2, 0.75, 0.5}
	require.Len(t, got, 3)
	for j := range want {
		assert.InDelta(t, want[j], got[j], 1e-12, "column %d", j)
	}
}

func TestMeanPool_SingleTokenMaskReturnsThatToken(t *testing.T) {
	hidden := [][]float64{
		{1, 2},
		{-7, 0.25},
		{9, 9},
	}
	for k := range hidden {
		mask := make([]float64, len(hidden))
		mask[k] = 1

		assert.Equal(t, hidden[k], MeanPool(hidden, mask, 2), "token %d", k)
	}
}

func TestMeanPool_PaddingValuesDoNotMatter(t *testing.T) {
	a := MeanPool([][]float64{{1, 1}, {0, 0}}, []float64{1, 0}, 2)
	b := MeanPool([][]float64{{1, 1}, {-9, 42}}, []float64{1, 0}, 2)

	assert.Equal(t, a, b)
}

func TestMeanPool_Degenerate(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0}, MeanPool(nil, nil, 3))
	assert.Equal(t, []float64{0, 0}, MeanPool([][]float64{{5, 5}}, []float64{0}, 2))
	assert.True(t, Finite(MeanPool([][]float64{{5, 5}}, nil, 2)))
}

func TestL2Normalize(t *testing.T) {
	got := L2Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-12)
	assert.InDelta(t, 0.8, got[1], 1e-12)

	assert.Equal(t, []float64{0, 0}, L2Normalize([]float64{0, 0}))
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite([]float64{0, 1, -1}))
	assert.False(t, Finite([]float64{0, math.Inf(1)}))
	assert.False(t, Finite([]float64{nan()}))
}
