// Package inference calls a remote trait-inference service over HTTP.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
	"github.com/helixml/careerpath/infrastructure/api/v1/dto"
)

// DefaultTimeout bounds a single inference call.
const DefaultTimeout = 60 * time.Second

const inferPath = "/ai/infer_user_traits"

// Client posts essays to another careerpath instance, or any service
// speaking the same contract, and returns the encoded traits.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithCache stores successful responses in cache.
func WithCache(cache *Cache) Option {
	return func(cl *Client) { cl.cache = cache }
}

// NewClient creates a Client for baseURL. timeout <= 0 uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Infer sends raw essay text and returns the remote inference.
func (c *Client) Infer(ctx context.Context, raw string, lang essay.Language) (trait.Inference, error) {
	if c.cache != nil {
		if hit, ok := c.cache.Get(raw, lang); ok {
			return hit, nil
		}
	}

	body, err := json.Marshal(dto.InferTraitsRequest{EssayText: raw, Lang: string(lang)})
	if err != nil {
		return trait.Inference{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+inferPath, bytes.NewReader(body))
	if err != nil {
		return trait.Inference{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return trait.Inference{}, fmt.Errorf("%w: %s: %w", errs.ErrUpstreamTimeout, c.baseURL, err)
		}
		return trait.Inference{}, fmt.Errorf("inference request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return trait.Inference{}, fmt.Errorf("%w: %s: %w", errs.ErrUpstreamTimeout, c.baseURL, err)
		}
		return trait.Inference{}, fmt.Errorf("read response: %w", err)
	}
	if err := statusError(resp.StatusCode, payload); err != nil {
		return trait.Inference{}, err
	}

	var out dto.InferTraitsResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return trait.Inference{}, fmt.Errorf("decode response: %w", err)
	}
	result, err := fromResponse(out)
	if err != nil {
		return trait.Inference{}, err
	}

	if c.cache != nil {
		c.cache.Put(raw, lang, result)
	}
	return result, nil
}

func fromResponse(out dto.InferTraitsResponse) (trait.Inference, error) {
	if len(out.Embedding) != out.EmbeddingDim {
		return trait.Inference{}, fmt.Errorf("inference response: embedding has %d values, declared %d", len(out.Embedding), out.EmbeddingDim)
	}
	scores := trait.Scores{RIASEC: out.RIASEC, BigFive: out.BigFive}
	if err := scores.Validate(); err != nil {
		return trait.Inference{}, fmt.Errorf("inference response: %w", err)
	}
	return trait.Inference{
		Original: out.EssayOriginal,
		Clean:    out.EssayUsed,
		Encoding: trait.Encoding{
			Embedding:    out.Embedding,
			RIASEC:       out.RIASEC,
			BigFive:      out.BigFive,
			DetectedLang: out.DetectedLang,
			UsedLang:     out.UsedLang,
		},
	}, nil
}

func statusError(code int, payload []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(payload))
	switch code {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return errs.Validationf("inference rejected essay: %s", msg)
	case http.StatusServiceUnavailable:
		return errs.ModelUnavailable("remote encoder", errors.New(msg))
	case http.StatusGatewayTimeout:
		return fmt.Errorf("%w: remote encoder: %s", errs.ErrUpstreamTimeout, msg)
	}
	return fmt.Errorf("inference: status %d: %s", code, msg)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
