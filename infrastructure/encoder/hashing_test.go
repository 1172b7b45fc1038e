package encoder

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/trait"
)

func mkdir(path string) error { return os.MkdirAll(path, 0o755) }

func TestHashing_Tokens(t *testing.T) {
	h := NewHashing(32, 0)

	hidden, mask, err := h.Tokens(context.Background(), "Nurse, teacher and data-analyst")
	require.NoError(t, err)

	require.Len(t, hidden, 8)
	require.Len(t, mask, 8)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 0, 0, 0}, mask)
	for i, row := range hidden {
		require.Len(t, row, 32)
		if mask[i] == 0 {
			assert.Equal(t, make([]float64, 32), row, "padding row %d", i)
		}
	}
}

func TestHashing_Truncates(t *testing.T) {
	h := NewHashing(16, 3)

	hidden, mask, err := h.Tokens(context.Background(), "one two three four five")
	require.NoError(t, err)
	assert.Len(t, hidden, 8)
	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0, 0, 0}, mask)
}

func TestHashing_EmptyTextPoolsToZero(t *testing.T) {
	h := NewHashing(16, 0)

	hidden, mask, err := h.Tokens(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, hidden)

	pooled := trait.MeanPool(hidden, mask, 16)
	assert.Equal(t, make([]float64, 16), pooled)
}

func TestHashing_CaseInsensitive(t *testing.T) {
	h := NewHashing(16, 0)

	a, _, err := h.Tokens(context.Background(), "Engineer")
	require.NoError(t, err)
	b, _, err := h.Tokens(context.Background(), "engineer")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashing_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewHashing(16, 0).Tokens(ctx, "hello")
	require.ErrorIs(t, err, context.Canceled)
}
