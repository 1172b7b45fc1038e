// Package encoder turns normalized essays into an embedding plus RIASEC and
// Big Five scores, using one checkpoint per language.
package encoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/internal/device"
)

// HeadsFile is the trait head file inside each checkpoint directory.
const HeadsFile = "heads.json"

// Backend returns one pooled sentence vector per text.
type Backend interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Close() error
}

// TokenBackend returns per-token hidden states and the attention mask for a
// text. The encoder pools them itself.
type TokenBackend interface {
	Tokens(ctx context.Context, text string) (hidden [][]float64, mask []float64, err error)
	Close() error
}

// Checkpoint is a loaded per-language model.
type Checkpoint struct {
	Language essay.Language
	Dir      string
	Heads    trait.Heads

	pooled Backend
	tokens TokenBackend
}

// Dim returns the declared embedding dimension.
func (c *Checkpoint) Dim() int { return c.Heads.Dim }

func (c *Checkpoint) embed(ctx context.Context, text string) ([]float64, error) {
	if c.tokens != nil {
		hidden, mask, err := c.tokens.Tokens(ctx, text)
		if err != nil {
			return nil, err
		}
		return trait.MeanPool(hidden, mask, c.Heads.Dim), nil
	}
	out, err := c.pooled.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("backend returned %d vectors for 1 text", len(out))
	}
	return out[0], nil
}

func (c *Checkpoint) close() error {
	if c.tokens != nil {
		return c.tokens.Close()
	}
	return c.pooled.Close()
}

// LoadHeads reads and validates dir/heads.json.
func LoadHeads(dir string) (trait.Heads, error) {
	data, err := os.ReadFile(filepath.Join(dir, HeadsFile))
	if err != nil {
		return trait.Heads{}, fmt.Errorf("read %s: %w", HeadsFile, err)
	}
	var h trait.Heads
	if err := json.Unmarshal(data, &h); err != nil {
		return trait.Heads{}, fmt.Errorf("parse %s: %w", HeadsFile, err)
	}
	if err := h.Validate(); err != nil {
		return trait.Heads{}, fmt.Errorf("%s: %w", HeadsFile, err)
	}
	return h, nil
}

// BackendFactory opens the backend of one checkpoint. It returns either a
// Backend or a TokenBackend.
type BackendFactory func(lang essay.Language, dir string, heads trait.Heads) (any, error)

// Registry holds every loaded checkpoint. It is built once at startup and
// shared by reference.
type Registry struct {
	checkpoints map[essay.Language]*Checkpoint
	minDim      int
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*Registry)

// WithMinDim rejects checkpoints that declare fewer than dim dimensions.
func WithMinDim(dim int) RegistryOption {
	return func(r *Registry) { r.minDim = dim }
}

// NewRegistry loads a checkpoint for every language directory found under
// root. A language without a directory is skipped; a directory that fails
// to load, or finding no checkpoint at all, is errs.ErrModelUnavailable.
func NewRegistry(root string, factory BackendFactory, logger *slog.Logger, opts ...RegistryOption) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{checkpoints: map[essay.Language]*Checkpoint{}}
	for _, opt := range opts {
		opt(r)
	}

	for _, lang := range essay.Languages() {
		dir := filepath.Join(root, string(lang))
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no encoder checkpoint for language", "lang", lang, "dir", dir)
			continue
		}

		cp, err := loadCheckpoint(lang, dir, factory, r.minDim)
		if err != nil {
			return nil, errors.Join(errs.ModelUnavailable("encoder/"+string(lang), err), r.Close())
		}
		r.checkpoints[lang] = cp
		logger.Info("encoder checkpoint loaded", "lang", lang, "dir", dir, "dim", cp.Dim())
	}

	if len(r.checkpoints) == 0 {
		return nil, errs.ModelUnavailable("encoder", fmt.Errorf("no checkpoint under %s", root))
	}
	return r, nil
}

func loadCheckpoint(lang essay.Language, dir string, factory BackendFactory, minDim int) (*Checkpoint, error) {
	heads, err := LoadHeads(dir)
	if err != nil {
		return nil, err
	}
	if err := heads.CheckDim(minDim); err != nil {
		return nil, fmt.Errorf("%s: %w", HeadsFile, err)
	}
	b, err := factory(lang, dir, heads)
	if err != nil {
		return nil, err
	}

	cp := &Checkpoint{Language: lang, Dir: dir, Heads: heads}
	switch v := b.(type) {
	case TokenBackend:
		cp.tokens = v
	case Backend:
		cp.pooled = v
	default:
		return nil, fmt.Errorf("backend %T implements neither Backend nor TokenBackend", b)
	}
	return cp, nil
}

// Languages returns the loaded languages in a stable order.
func (r *Registry) Languages() []essay.Language {
	out := make([]essay.Language, 0, len(r.checkpoints))
	for lang := range r.checkpoints {
		out = append(out, lang)
	}
	slices.Sort(out)
	return out
}

// Checkpoint returns the checkpoint for lang, falling back to English and
// then to any loaded language.
func (r *Registry) Checkpoint(lang essay.Language) *Checkpoint {
	if cp, ok := r.checkpoints[lang]; ok {
		return cp
	}
	if cp, ok := r.checkpoints[essay.LanguageEnglish]; ok {
		return cp
	}
	return r.checkpoints[r.Languages()[0]]
}

// Close releases every backend.
func (r *Registry) Close() error {
	var errList []error
	for _, cp := range r.checkpoints {
		if err := cp.close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Encoder runs checkpoints on the shared device.
type Encoder struct {
	registry *Registry
	device   *device.Device
	logger   *slog.Logger
}

// NewEncoder creates an Encoder.
func NewEncoder(registry *Registry, dev *device.Device, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{registry: registry, device: dev, logger: logger}
}

// Dim returns the embedding dimension of the checkpoint used for lang.
func (e *Encoder) Dim(lang essay.Language) int {
	if lang == essay.LanguageAuto || lang == "" {
		lang = essay.LanguageEnglish
	}
	return e.registry.Checkpoint(lang).Dim()
}

// Encode embeds clean text and scores its traits. lang may be
// essay.LanguageAuto. Heads score the pooled vector; the returned embedding
// is its L2-normalized form with exactly the checkpoint's dimension.
func (e *Encoder) Encode(ctx context.Context, clean string, lang essay.Language) (trait.Encoding, error) {
	detected := essay.DetectLanguage(clean)
	wanted := lang
	if wanted == essay.LanguageAuto || wanted == "" {
		wanted = detected
	}
	cp := e.registry.Checkpoint(wanted)
	if cp.Language != wanted {
		e.logger.WarnContext(ctx, "no checkpoint for language, falling back", "wanted", wanted, "used", cp.Language)
	}

	pooled, err := e.forward(ctx, cp, clean)
	if err != nil {
		return trait.Encoding{}, err
	}

	scores := cp.Heads.Score(pooled)
	return trait.Encoding{
		Embedding:    trait.L2Normalize(pooled),
		RIASEC:       scores.RIASEC,
		BigFive:      scores.BigFive,
		DetectedLang: string(detected),
		UsedLang:     string(cp.Language),
	}, nil
}

// EmbedText returns only the normalized embedding, using the checkpoint for
// the text's detected language.
func (e *Encoder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	cp := e.registry.Checkpoint(essay.DetectLanguage(text))
	pooled, err := e.forward(ctx, cp, text)
	if err != nil {
		return nil, err
	}
	return trait.L2Normalize(pooled), nil
}

func (e *Encoder) forward(ctx context.Context, cp *Checkpoint, text string) ([]float64, error) {
	raw, err := device.Do(ctx, e.device, func(ctx context.Context) ([]float64, error) {
		return cp.embed(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("encode (%s): %w", cp.Language, err)
	}
	if len(raw) != cp.Dim() {
		return nil, errs.ModelUnavailable("encoder/"+string(cp.Language),
			fmt.Errorf("output dimension %d, declared %d", len(raw), cp.Dim()))
	}
	if !trait.Finite(raw) {
		return nil, errs.ModelUnavailable("encoder/"+string(cp.Language), errors.New("non-finite output"))
	}
	return raw, nil
}
