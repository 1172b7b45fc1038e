package encoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotBatchMax = 10

// HugotSession owns the process-wide hugot session. ONNX Runtime allows a
// single active session per process, so every language pipeline shares it.
// The mutex serializes initialization and inference.
type HugotSession struct {
	mu      sync.Mutex
	libDir  string
	session *hugot.Session
	refs    int
}

// NewHugotSession creates a lazily initialized session. libDir is the ONNX
// Runtime library directory used by ORT builds; empty means auto-detect.
func NewHugotSession(libDir string) *HugotSession {
	return &HugotSession{libDir: libDir}
}

// Pipeline opens a feature extraction pipeline for the model found in dir.
func (s *HugotSession) Pipeline(name, dir string) (*HugotPipeline, error) {
	modelPath, err := modelPath(dir)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		session, err := newHugotSession(s.libDir)
		if err != nil {
			return nil, fmt.Errorf("create hugot session: %w", err)
		}
		s.session = session
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      name,
	}
	pipeline, err := hugot.NewPipeline(s.session, config)
	if err != nil {
		if s.refs == 0 {
			s.destroy()
		}
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}
	s.refs++
	return &HugotPipeline{session: s, pipeline: pipeline}, nil
}

func (s *HugotSession) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.refs > 0 {
		return nil
	}
	return s.destroy()
}

func (s *HugotSession) destroy() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

// modelPath returns dir when it holds tokenizer.json, otherwise the first
// subdirectory that does.
func modelPath(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "tokenizer.json")); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no model with tokenizer.json found in %s", dir)
}

// HugotPipeline embeds texts with one ONNX checkpoint. Output vectors are
// mean-pooled by the pipeline and left unnormalized.
type HugotPipeline struct {
	session  *HugotSession
	pipeline *pipelines.FeatureExtractionPipeline
	once     sync.Once
}

// Embed returns one pooled vector per text.
func (p *HugotPipeline) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += hugotBatchMax {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+hugotBatchMax, len(texts))

		p.session.mu.Lock()
		result, err := p.pipeline.RunPipeline(texts[start:end])
		p.session.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("run feature extraction: %w", err)
		}

		for _, emb := range result.Embeddings {
			vec := make([]float64, len(emb))
			for i, v := range emb {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

// Close releases the pipeline's hold on the shared session.
func (p *HugotPipeline) Close() error {
	var err error
	p.once.Do(func() { err = p.session.release() })
	return err
}
