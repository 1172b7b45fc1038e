// Package testmodels writes small, fully loadable model files so tests can
// build a complete client without downloading checkpoints.
package testmodels

import (
	"path/filepath"
	"testing"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/infrastructure/encoder"
	"github.com/helixml/careerpath/infrastructure/ranker"
	"github.com/helixml/careerpath/internal/config"
)

// Dim is the embedding dimension of the generated models.
const Dim = 16

// Config returns a configuration rooted in a fresh temp directory with
// hashing encoder checkpoints for every language and an initialized ranker
// artifact. Model refresh is disabled.
func Config(t *testing.T, opts ...config.AppConfigOption) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	base := []config.AppConfigOption{
		config.WithDataDir(dir),
		config.WithEncoderBackend(config.EncoderHashing),
		config.WithHashingDim(Dim),
		config.WithMinEmbeddingDim(Dim),
		config.WithLogLevel("ERROR"),
		config.WithModelRefreshConfig(config.NewModelRefreshConfig().WithEnabled(false)),
	}
	cfg := config.NewAppConfigWithOptions(append(base, opts...)...)

	for i, lang := range essay.Languages() {
		heads := encoder.InitHeads(cfg.HashingDim(), uint64(i+1))
		if err := encoder.WriteHeads(filepath.Join(cfg.EncoderModelDir(), string(lang)), heads, true); err != nil {
			t.Fatalf("testmodels: write heads: %v", err)
		}
	}
	if _, err := ranker.InitArtifact(filepath.Join(cfg.RankerDir(), "v1"), cfg.HashingDim(), 7, true); err != nil {
		t.Fatalf("testmodels: init ranker: %v", err)
	}
	return cfg
}
