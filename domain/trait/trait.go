// Package trait models personality trait scores (RIASEC and Big Five) and
// the pure math that produces and combines them.
package trait

import (
	"fmt"
	"math"
	"time"

	"github.com/helixml/careerpath/domain/errs"
)

// Vector widths.
const (
	RIASECDims  = 6
	BigFiveDims = 5
)

// ScoreTolerance is how far a score may stray outside [0,1] from rounding.
const ScoreTolerance = 1e-9

// DefaultTestWeight is the weight of the questionnaire score when fusing it
// with the essay-derived score.
const DefaultTestWeight = 0.7

// Scores holds one source's trait vectors. A nil slice means the source did
// not produce that vector.
type Scores struct {
	RIASEC  []float64
	BigFive []float64
}

// Validate checks widths and finiteness of the present vectors and that
// every value lies in [0,1].
func (s Scores) Validate() error {
	if err := checkVector("riasec", s.RIASEC, RIASECDims); err != nil {
		return err
	}
	return checkVector("big5", s.BigFive, BigFiveDims)
}

// Empty reports whether neither vector is present.
func (s Scores) Empty() bool {
	return s.RIASEC == nil && s.BigFive == nil
}

func checkVector(name string, v []float64, width int) error {
	if v == nil {
		return nil
	}
	if len(v) != width {
		return errs.Validationf("%s must have %d values, got %d", name, width, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errs.Validationf("%s[%d] is not finite", name, i)
		}
		if x < -ScoreTolerance || x > 1+ScoreTolerance {
			return errs.Validationf("%s[%d]=%v outside [0,1]", name, i, x)
		}
	}
	return nil
}

// Encoding is the output of the trait encoder for one essay.
type Encoding struct {
	Embedding    []float64
	RIASEC       []float64
	BigFive      []float64
	DetectedLang string
	UsedLang     string
}

// Scores returns the essay scores carried by the encoding.
func (e Encoding) Scores() Scores {
	return Scores{RIASEC: e.RIASEC, BigFive: e.BigFive}
}

// Inference is an encoded essay together with the text before and after
// normalization.
type Inference struct {
	Original string
	Clean    string
	Encoding
}

// Snapshot is one persisted point in a user's trait history. Fused values
// are per-dimension pointers; a nil entry means neither source had it.
type Snapshot struct {
	ID           int64
	UserID       int64
	Test         Scores
	Essay        Scores
	RIASECFused  []*float64
	BigFiveFused []*float64
	CreatedAt    time.Time
}

// HasTest reports whether questionnaire scores contributed.
func (s Snapshot) HasTest() bool { return !s.Test.Empty() }

// HasEssay reports whether essay scores contributed.
func (s Snapshot) HasEssay() bool { return !s.Essay.Empty() }

// RIASEC returns the fused RIASEC vector with undefined dimensions as zero,
// for consumers that need a dense feature row.
func (s Snapshot) RIASEC() []float64 { return Dense(s.RIASECFused, RIASECDims) }

// BigFive returns the fused Big Five vector with undefined dimensions as
// zero.
func (s Snapshot) BigFive() []float64 { return Dense(s.BigFiveFused, BigFiveDims) }

// Dense converts a fused vector into a zero-filled slice of the given width.
func Dense(fused []*float64, width int) []float64 {
	out := make([]float64, width)
	for i := 0; i < width && i < len(fused); i++ {
		if fused[i] != nil {
			out[i] = *fused[i]
		}
	}
	return out
}

func (s Snapshot) String() string {
	return fmt.Sprintf("Snapshot{user=%d test=%t essay=%t}", s.UserID, s.HasTest(), s.HasEssay())
}
