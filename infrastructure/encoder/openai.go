package encoder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/internal/config"
)

// errEmbeddingCountMismatch marks a partial response; retryable because
// rate limiting behind a 200 status can produce one.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure marks a 200 response with no data, no model
// and zero usage. Routing providers return this when every upstream is down.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// OpenAI embeds texts through an OpenAI-compatible embeddings endpoint.
type OpenAI struct {
	client        *openai.Client
	model         string
	dimensions    int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAI creates an OpenAI backend. dimensions is sent with each request
// so the returned vectors match the checkpoint heads.
func NewOpenAI(endpoint config.Endpoint, dimensions int) *OpenAI {
	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}

	model := endpoint.Model()
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	backoff := endpoint.BackoffFactor()
	if backoff == 0 {
		backoff = 2.0
	}

	return &OpenAI{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		dimensions:    dimensions,
		maxRetries:    endpoint.MaxRetries(),
		initialDelay:  endpoint.InitialDelay(),
		backoffFactor: backoff,
	}
}

// Embed returns one vector per text in a single API call.
func (p *OpenAI) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	req := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.model),
		Input:      texts,
		Dimensions: p.dimensions,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var err error
		resp, err = p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf("%w: HTTP 200 with no embedding data, no model and zero usage", errUpstreamProviderFailure)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	out := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		out[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			out[i][j] = float64(v)
		}
	}
	return out, nil
}

// Close is a no-op.
func (p *OpenAI) Close() error { return nil }

func (p *OpenAI) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// wrapError maps timeouts to errs.ErrUpstreamTimeout.
func (p *OpenAI) wrapError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: embedding: %w", errs.ErrUpstreamTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding: status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	return fmt.Errorf("embedding: %w", err)
}
