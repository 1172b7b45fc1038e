package trait

import (
	"fmt"
	"math"
)

// MinEmbeddingDim is the smallest embedding width a served checkpoint may
// declare.
const MinEmbeddingDim = 256

// Linear is a dense layer y = W x + b.
type Linear struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Heads maps a pooled embedding to trait scores in [0,1].
type Heads struct {
	Dim     int    `json:"dim"`
	RIASEC  Linear `json:"riasec"`
	BigFive Linear `json:"big5"`
}

// Validate checks the head shapes against the declared dimension.
func (h Heads) Validate() error {
	if h.Dim <= 0 {
		return fmt.Errorf("embedding dim must be positive, got %d", h.Dim)
	}
	if err := h.RIASEC.check("riasec", RIASECDims, h.Dim); err != nil {
		return err
	}
	return h.BigFive.check("big5", BigFiveDims, h.Dim)
}

// CheckDim fails when the declared dimension is narrower than floor.
func (h Heads) CheckDim(floor int) error {
	if h.Dim < floor {
		return fmt.Errorf("embedding dim %d below minimum %d", h.Dim, floor)
	}
	return nil
}

func (l Linear) check(name string, out, in int) error {
	if len(l.Weight) != out || len(l.Bias) != out {
		return fmt.Errorf("%s head: want %d outputs, got weight %d bias %d", name, out, len(l.Weight), len(l.Bias))
	}
	for i, row := range l.Weight {
		if len(row) != in {
			return fmt.Errorf("%s head: row %d has %d inputs, want %d", name, i, len(row), in)
		}
	}
	return nil
}

// Apply returns sigmoid(W x + b). x must have the layer's input width.
func (l Linear) Apply(x []float64) []float64 {
	out := make([]float64, len(l.Weight))
	for i, row := range l.Weight {
		z := l.Bias[i]
		for j, w := range row {
			z += w * x[j]
		}
		out[i] = sigmoid(z)
	}
	return out
}

// Score runs both heads over a pooled embedding.
func (h Heads) Score(pooled []float64) Scores {
	return Scores{
		RIASEC:  h.RIASEC.Apply(pooled),
		BigFive: h.BigFive.Apply(pooled),
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
