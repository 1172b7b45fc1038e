package encoder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/device"
)

// NewBackendFactory returns the factory for the configured backend.
func NewBackendFactory(cfg config.AppConfig) (BackendFactory, error) {
	switch cfg.EncoderBackend() {
	case config.EncoderHashing:
		return func(_ essay.Language, _ string, heads trait.Heads) (any, error) {
			return NewHashing(heads.Dim, DefaultMaxTokens), nil
		}, nil

	case config.EncoderOpenAI:
		endpoint := cfg.EmbeddingEndpoint()
		if endpoint == nil || !endpoint.IsConfigured() {
			return nil, errors.New("openai encoder backend requires EMBEDDING_ENDPOINT_MODEL")
		}
		return func(_ essay.Language, _ string, heads trait.Heads) (any, error) {
			return NewOpenAI(*endpoint, heads.Dim), nil
		}, nil

	case config.EncoderHugot:
		session := NewHugotSession(cfg.ORTLibraryPath())
		return func(lang essay.Language, dir string, _ trait.Heads) (any, error) {
			return session.Pipeline("encoder-"+string(lang), dir)
		}, nil
	}
	return nil, fmt.Errorf("unknown encoder backend %q", cfg.EncoderBackend())
}

// Open loads the registry described by cfg and returns an Encoder over it.
// Callers close the returned Registry.
func Open(cfg config.AppConfig, dev *device.Device, logger *slog.Logger) (*Encoder, *Registry, error) {
	factory, err := NewBackendFactory(cfg)
	if err != nil {
		return nil, nil, err
	}
	registry, err := NewRegistry(cfg.EncoderModelDir(), factory, logger, WithMinDim(cfg.MinEmbeddingDim()))
	if err != nil {
		return nil, nil, err
	}
	return NewEncoder(registry, dev, logger), registry, nil
}
