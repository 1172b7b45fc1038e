package ranker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/errs"
)

func TestResolveArtifactDir(t *testing.T) {
	t.Run("highest version", func(t *testing.T) {
		root := t.TempDir()
		for _, d := range []string{"v2", "v10", "v9", "notes"} {
			require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
		}
		got, err := ResolveArtifactDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "v10"), got)
	})

	t.Run("current wins", func(t *testing.T) {
		root := t.TempDir()
		for _, d := range []string{"v1", "current"} {
			require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
		}
		got, err := ResolveArtifactDir(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "current"), got)
	})

	t.Run("flat root", func(t *testing.T) {
		root := t.TempDir()
		got, err := ResolveArtifactDir(root)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := ResolveArtifactDir(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, errs.ErrModelUnavailable)
	})
}

func TestLoadArtifact(t *testing.T) {
	t.Run("missing weights", func(t *testing.T) {
		_, err := LoadArtifact(t.TempDir(), 8, 1)
		require.ErrorIs(t, err, errs.ErrModelUnavailable)
	})

	t.Run("without feature tables", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteStateDict(filepath.Join(dir, DefaultModelFile), NewMLP(InputDim(8), 1).StateDict()))

		a, err := LoadArtifact(dir, 8, 1)
		require.NoError(t, err)
		assert.Nil(t, a.Warning)
		assert.Empty(t, a.Users)
		assert.Empty(t, a.Items)
		assert.Equal(t, filepath.Base(dir), a.Version)
	})

	t.Run("partial load carries a warning", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteStateDict(filepath.Join(dir, DefaultModelFile), NewMLP(InputDim(16), 1).StateDict()))

		a, err := LoadArtifact(dir, 8, 1)
		require.NoError(t, err)
		require.NotNil(t, a.Warning)
		assert.Equal(t, []string{"fc1.weight"}, a.Warning.Skipped)

		var warning *PartialLoadWarning
		require.True(t, errors.As(error(a.Warning), &warning))
		assert.Contains(t, warning.Error(), "fc1.weight")
	})

	t.Run("bad feature width", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteStateDict(filepath.Join(dir, DefaultModelFile), NewMLP(InputDim(8), 1).StateDict()))
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultItemFeaturesFile), []byte(`{"a":{"riasec":[1,2]}}`), 0o644))

		_, err := LoadArtifact(dir, 8, 1)
		require.ErrorIs(t, err, errs.ErrModelUnavailable)
	})
}

func TestInitArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "v1")

	path, err := InitArtifact(dir, 8, 3, false)
	require.NoError(t, err)
	assert.FileExists(t, path)

	a, err := LoadArtifact(dir, 8, 99)
	require.NoError(t, err)
	assert.Nil(t, a.Warning)
	assert.Equal(t, "v1", a.Version)
	assert.Equal(t, NewMLP(InputDim(8), 3).StateDict(), a.Model.StateDict())

	_, err = InitArtifact(dir, 8, 3, false)
	assert.Error(t, err)
	_, err = InitArtifact(dir, 8, 4, true)
	assert.NoError(t, err)
}

func TestArtifactDim(t *testing.T) {
	root := t.TempDir()
	_, err := InitArtifact(filepath.Join(root, "v2"), 12, 1, false)
	require.NoError(t, err)

	dim, err := ArtifactDim(root)
	require.NoError(t, err)
	assert.Equal(t, 12, dim)

	_, err = ArtifactDim(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, errs.ErrModelUnavailable)
}
