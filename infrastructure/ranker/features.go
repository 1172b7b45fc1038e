package ranker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/helixml/careerpath/domain/trait"
)

// UserFeatures is the user half of a feature row.
type UserFeatures struct {
	Text      string    `json:"text,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
	RIASEC    []float64 `json:"riasec,omitempty"`
	BigFive   []float64 `json:"big5,omitempty"`
}

// ItemFeatures is the career half of a feature row.
type ItemFeatures struct {
	Text      string    `json:"text,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
	RIASEC    []float64 `json:"riasec,omitempty"`
}

// NewUserFeatures validates widths and zero-fills missing vectors.
func NewUserFeatures(text string, embedding, riasec, big5 []float64, dim int) (UserFeatures, error) {
	emb, err := fill("embedding", embedding, dim)
	if err != nil {
		return UserFeatures{}, err
	}
	r, err := fill("riasec", riasec, trait.RIASECDims)
	if err != nil {
		return UserFeatures{}, err
	}
	b, err := fill("big5", big5, trait.BigFiveDims)
	if err != nil {
		return UserFeatures{}, err
	}
	return UserFeatures{Text: text, Embedding: emb, RIASEC: r, BigFive: b}, nil
}

// NewItemFeatures validates widths and zero-fills missing vectors.
func NewItemFeatures(text string, embedding, riasec []float64, dim int) (ItemFeatures, error) {
	emb, err := fill("embedding", embedding, dim)
	if err != nil {
		return ItemFeatures{}, err
	}
	r, err := fill("riasec", riasec, trait.RIASECDims)
	if err != nil {
		return ItemFeatures{}, err
	}
	return ItemFeatures{Text: text, Embedding: emb, RIASEC: r}, nil
}

func fill(name string, v []float64, width int) ([]float64, error) {
	if len(v) == 0 {
		return make([]float64, width), nil
	}
	if len(v) != width {
		return nil, fmt.Errorf("%s has %d values, want %d", name, len(v), width)
	}
	return append([]float64(nil), v...), nil
}

// Row concatenates [user emb | item emb | user riasec | user big5 | item riasec].
func Row(u UserFeatures, it ItemFeatures) []float64 {
	row := make([]float64, 0, len(u.Embedding)+len(it.Embedding)+17)
	row = append(row, u.Embedding...)
	row = append(row, it.Embedding...)
	row = append(row, u.RIASEC...)
	row = append(row, u.BigFive...)
	row = append(row, it.RIASEC...)
	return row
}

// readUserFeatures loads the user id -> features mapping. A missing file is
// an empty table. Rows without an embedding keep a nil one so the ranker
// can encode their text.
func readUserFeatures(path string, dim int) (map[int64]UserFeatures, error) {
	raw := map[string]UserFeatures{}
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[int64]UserFeatures, len(raw))
	for key, f := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: user id %q: %w", path, key, err)
		}
		if err := checkOptional(f.Embedding, dim); err != nil {
			return nil, fmt.Errorf("%s: user %d: %w", path, id, err)
		}
		if f.RIASEC, err = fill("riasec", f.RIASEC, trait.RIASECDims); err != nil {
			return nil, fmt.Errorf("%s: user %d: %w", path, id, err)
		}
		if f.BigFive, err = fill("big5", f.BigFive, trait.BigFiveDims); err != nil {
			return nil, fmt.Errorf("%s: user %d: %w", path, id, err)
		}
		out[id] = f
	}
	return out, nil
}

// readItemFeatures loads the job id -> features mapping, with the same
// conventions as readUserFeatures.
func readItemFeatures(path string, dim int) (map[string]ItemFeatures, error) {
	raw := map[string]ItemFeatures{}
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]ItemFeatures, len(raw))
	for id, f := range raw {
		if err := checkOptional(f.Embedding, dim); err != nil {
			return nil, fmt.Errorf("%s: item %s: %w", path, id, err)
		}
		var err error
		if f.RIASEC, err = fill("riasec", f.RIASEC, trait.RIASECDims); err != nil {
			return nil, fmt.Errorf("%s: item %s: %w", path, id, err)
		}
		out[id] = f
	}
	return out, nil
}

func checkOptional(v []float64, dim int) error {
	if len(v) != 0 && len(v) != dim {
		return fmt.Errorf("embedding has %d values, want %d", len(v), dim)
	}
	return nil
}

func readJSON(path string, into any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
