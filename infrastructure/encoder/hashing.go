package encoder

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultMaxTokens truncates long essays for the hashing backend.
	DefaultMaxTokens = 512
	hashingProbes    = 4
	padMultiple      = 8
)

// Hashing is a deterministic token encoder based on feature hashing. Each
// token becomes a sparse signed vector; sequences are padded with masked
// rows the way a batched transformer pads its inputs.
type Hashing struct {
	dim       int
	maxTokens int
}

// NewHashing creates a Hashing encoder emitting dim-wide hidden states.
func NewHashing(dim, maxTokens int) *Hashing {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Hashing{dim: dim, maxTokens: maxTokens}
}

// Dim returns the hidden-state width.
func (h *Hashing) Dim() int { return h.dim }

// Tokens returns per-token hidden states and the attention mask.
func (h *Hashing) Tokens(ctx context.Context, text string) ([][]float64, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tokens := tokenize(text)
	if len(tokens) > h.maxTokens {
		tokens = tokens[:h.maxTokens]
	}

	padded := len(tokens)
	if rem := padded % padMultiple; rem != 0 {
		padded += padMultiple - rem
	}

	hidden := make([][]float64, padded)
	mask := make([]float64, padded)
	for i := range hidden {
		hidden[i] = make([]float64, h.dim)
		if i < len(tokens) {
			h.project(tokens[i], hidden[i])
			mask[i] = 1
		}
	}
	return hidden, mask, nil
}

func (h *Hashing) project(token string, row []float64) {
	for p := range hashingProbes {
		sum := xxhash.Sum64String(strconv.Itoa(p) + ":" + token)
		idx := int(sum % uint64(h.dim))
		if sum>>63 == 1 {
			row[idx]--
		} else {
			row[idx]++
		}
	}
}

// Close is a no-op.
func (h *Hashing) Close() error { return nil }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
}
