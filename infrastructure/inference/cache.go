package inference

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/domain/trait"
)

// Cache keeps inference results on disk, keyed by a hash of language and
// essay text. Read and write failures fall through to a miss.
type Cache struct {
	dir string
}

// NewCache creates a Cache under dir.
func NewCache(dir string) *Cache {
	_ = os.MkdirAll(dir, 0o755)
	return &Cache{dir: dir}
}

type cachedInference struct {
	Original     string    `json:"original"`
	Clean        string    `json:"clean"`
	Embedding    []float64 `json:"embedding"`
	RIASEC       []float64 `json:"riasec"`
	BigFive      []float64 `json:"big5"`
	DetectedLang string    `json:"detected_lang"`
	UsedLang     string    `json:"used_lang"`
}

func (c *Cache) path(raw string, lang essay.Language) string {
	sum := xxhash.Sum64String(string(lang) + "\x00" + raw)
	return filepath.Join(c.dir, strconv.FormatUint(sum, 16)+".json")
}

// Get returns a cached inference.
func (c *Cache) Get(raw string, lang essay.Language) (trait.Inference, bool) {
	data, err := os.ReadFile(c.path(raw, lang))
	if err != nil {
		return trait.Inference{}, false
	}
	var v cachedInference
	if err := json.Unmarshal(data, &v); err != nil || v.Original != raw {
		return trait.Inference{}, false
	}
	return trait.Inference{
		Original: v.Original,
		Clean:    v.Clean,
		Encoding: trait.Encoding{
			Embedding:    v.Embedding,
			RIASEC:       v.RIASEC,
			BigFive:      v.BigFive,
			DetectedLang: v.DetectedLang,
			UsedLang:     v.UsedLang,
		},
	}, true
}

// Put stores an inference.
func (c *Cache) Put(raw string, lang essay.Language, inf trait.Inference) {
	data, err := json.Marshal(cachedInference{
		Original:     raw,
		Clean:        inf.Clean,
		Embedding:    inf.Embedding,
		RIASEC:       inf.RIASEC,
		BigFive:      inf.BigFive,
		DetectedLang: inf.DetectedLang,
		UsedLang:     inf.UsedLang,
	})
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(raw, lang), data, 0o644)
}
