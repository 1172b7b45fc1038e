package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
)

// DefaultModels are the Hugging Face repositories fetched per language.
var DefaultModels = map[essay.Language]string{
	essay.LanguageEnglish:    "sentence-transformers/all-MiniLM-L6-v2",
	essay.LanguageVietnamese: "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2",
}

// Download fetches an ONNX model into dest unless one is already there.
func Download(repo, dest string) (string, error) {
	if path, err := modelPath(dest); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	path, err := hugot.DownloadModel(repo, dest, opts)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", repo, err)
	}
	return path, nil
}

// InitHeads returns untrained heads with Xavier-uniform weights drawn from
// seed. They make a fresh checkpoint loadable before real heads exist.
func InitHeads(dim int, seed uint64) trait.Heads {
	rng := rand.New(rand.NewPCG(seed, uint64(dim)))
	layer := func(out int) trait.Linear {
		limit := math.Sqrt(6.0 / float64(dim+out))
		w := make([][]float64, out)
		for i := range w {
			w[i] = make([]float64, dim)
			for j := range w[i] {
				w[i][j] = (rng.Float64()*2 - 1) * limit
			}
		}
		return trait.Linear{Weight: w, Bias: make([]float64, out)}
	}
	return trait.Heads{
		Dim:     dim,
		RIASEC:  layer(trait.RIASECDims),
		BigFive: layer(trait.BigFiveDims),
	}
}

// WriteHeads writes heads to dir/heads.json. An existing file is kept
// unless overwrite is set.
func WriteHeads(dir string, heads trait.Heads, overwrite bool) error {
	if err := heads.Validate(); err != nil {
		return err
	}
	path := filepath.Join(dir, HeadsFile)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.Marshal(heads)
	if err != nil {
		return fmt.Errorf("marshal heads: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
