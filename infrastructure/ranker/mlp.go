// Package ranker scores (user, career) pairs with a feed-forward network and
// manages the versioned artifacts it is loaded from.
package ranker

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Layer widths after the input.
const (
	Hidden1 = 512
	Hidden2 = 128
)

// Param is a named tensor in row-major order.
type Param struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (p Param) size() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type dense struct {
	in, out int
	weight  []float64 // out x in
	bias    []float64
}

func newDense(in, out int, rng *rand.Rand) dense {
	bound := 1 / math.Sqrt(float64(in))
	d := dense{in: in, out: out, weight: make([]float64, in*out), bias: make([]float64, out)}
	for i := range d.weight {
		d.weight[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := range d.bias {
		d.bias[i] = (rng.Float64()*2 - 1) * bound
	}
	return d
}

func (d dense) apply(x, out []float64, relu bool) {
	for o := range d.out {
		row := d.weight[o*d.in : (o+1)*d.in]
		sum := d.bias[o]
		for i, w := range row {
			sum += w * x[i]
		}
		if relu && sum < 0 {
			sum = 0
		}
		out[o] = sum
	}
}

// MLP is the pairwise scorer: input -> 512 -> 128 -> 1 with ReLU between
// layers and a linear output.
type MLP struct {
	inputDim int
	fc1      dense
	fc2      dense
	fc3      dense
}

// InputDim returns the feature width for an embedding dimension.
func InputDim(embeddingDim int) int {
	return 2*embeddingDim + 17
}

// NewMLP creates an MLP with uniform(-1/sqrt(fan_in), 1/sqrt(fan_in))
// parameters drawn from seed.
func NewMLP(inputDim int, seed uint64) *MLP {
	rng := rand.New(rand.NewPCG(seed, uint64(inputDim)))
	return &MLP{
		inputDim: inputDim,
		fc1:      newDense(inputDim, Hidden1, rng),
		fc2:      newDense(Hidden1, Hidden2, rng),
		fc3:      newDense(Hidden2, 1, rng),
	}
}

// InputDim returns the expected feature row width.
func (m *MLP) InputDim() int { return m.inputDim }

// Forward scores one feature row.
func (m *MLP) Forward(x []float64) (float64, error) {
	if len(x) != m.inputDim {
		return 0, fmt.Errorf("feature row has %d values, model expects %d", len(x), m.inputDim)
	}
	h1 := make([]float64, Hidden1)
	h2 := make([]float64, Hidden2)
	out := make([]float64, 1)
	m.fc1.apply(x, h1, true)
	m.fc2.apply(h1, h2, true)
	m.fc3.apply(h2, out, false)
	return out[0], nil
}

// ForwardBatch scores every row.
func (m *MLP) ForwardBatch(rows [][]float64) ([]float64, error) {
	h1 := make([]float64, Hidden1)
	h2 := make([]float64, Hidden2)
	out := make([]float64, 1)
	scores := make([]float64, len(rows))
	for i, x := range rows {
		if len(x) != m.inputDim {
			return nil, fmt.Errorf("feature row %d has %d values, model expects %d", i, len(x), m.inputDim)
		}
		m.fc1.apply(x, h1, true)
		m.fc2.apply(h1, h2, true)
		m.fc3.apply(h2, out, false)
		scores[i] = out[0]
	}
	return scores, nil
}

// params exposes the named tensors, sharing storage with the model.
func (m *MLP) params() map[string]Param {
	out := map[string]Param{}
	for name, d := range map[string]*dense{"fc1": &m.fc1, "fc2": &m.fc2, "fc3": &m.fc3} {
		out[name+".weight"] = Param{Shape: []int{d.out, d.in}, Data: d.weight}
		out[name+".bias"] = Param{Shape: []int{d.out}, Data: d.bias}
	}
	return out
}

// StateDict returns a copy of every parameter.
func (m *MLP) StateDict() StateDict {
	sd := StateDict{Params: map[string]Param{}}
	for name, p := range m.params() {
		sd.Params[name] = Param{Shape: append([]int(nil), p.Shape...), Data: append([]float64(nil), p.Data...)}
	}
	return sd
}

// LoadStateDict copies every shape-compatible parameter from sd. It returns
// the model parameters left at initialization and the names in sd the model
// does not have, both sorted.
func (m *MLP) LoadStateDict(sd StateDict) (skipped, unexpected []string) {
	own := m.params()
	for name, p := range own {
		src, ok := sd.Params[name]
		if !ok || !sameShape(src.Shape, p.Shape) || len(src.Data) != p.size() || !finite(src.Data) {
			skipped = append(skipped, name)
			continue
		}
		copy(p.Data, src.Data)
	}
	for name := range sd.Params {
		if _, ok := own[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	return sortedOrEmpty(skipped), sortedOrEmpty(unexpected)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
