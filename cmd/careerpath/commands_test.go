package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCareers(t *testing.T) {
	in := strings.NewReader(`{"id":"nurse","title":"Nurse","description":"Cares for patients","riasec":[0.1,0.2,0.9,0.3,0.1,0.2]}

{"id":"dev","title":"Developer","embedding":[1,0,0]}
`)

	careers, err := readCareers(in)
	require.NoError(t, err)
	require.Len(t, careers, 2)

	assert.Equal(t, "nurse", careers[0].ID)
	assert.Equal(t, "Cares for patients", careers[0].Description)
	assert.Len(t, careers[0].RIASEC, 6)
	assert.Empty(t, careers[0].Embedding)
	assert.Equal(t, []float64{1, 0, 0}, careers[1].Embedding)

	assert.True(t, needsEmbedding(careers))
	assert.False(t, needsEmbedding(careers[1:]))
}

func TestReadCareers_BadLine(t *testing.T) {
	_, err := readCareers(strings.NewReader("{\"id\":\"a\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestPairFilters(t *testing.T) {
	opts, err := pairFilters(buildPairsFlags{})
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = pairFilters(buildPairsFlags{
		since: "2026-01-01T00:00:00Z",
		until: "2026-02-01T00:00:00Z",
		users: []int64{1, 2},
	})
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	_, err = pairFilters(buildPairsFlags{since: "yesterday"})
	assert.Error(t, err)
}

func TestInitModelsCmd(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)

	cmd := rootCmd()
	cmd.SetArgs([]string{"init-models", "--dim", "8"})
	require.NoError(t, cmd.Execute())

	for _, lang := range []string{"en", "vi"} {
		_, err := os.Stat(filepath.Join(dataDir, "models", "encoder", lang, "heads.json"))
		assert.NoError(t, err, lang)
	}
	entries, err := os.ReadDir(filepath.Join(dataDir, "models", "ranker", "v1"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestBuildPairsCmd_WritesFile(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	out := filepath.Join(dataDir, "pairs.jsonl")

	cmd := rootCmd()
	cmd.SetArgs([]string{"build-pairs", "--out", out})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestCloseOutput(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "pairs.jsonl"))
	require.NoError(t, err)
	require.NoError(t, closeOutput(f))

	err = closeOutput(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close output")
}
