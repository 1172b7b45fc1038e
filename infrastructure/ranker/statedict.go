package ranker

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// StateDict is the on-disk form of the model weights:
// {"params": {"fc1.weight": {"shape": [512, F], "data": [...]}, ...}}.
type StateDict struct {
	Params map[string]Param `json:"params"`
}

// ReadStateDict parses a weights file.
func ReadStateDict(path string) (StateDict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StateDict{}, fmt.Errorf("read weights: %w", err)
	}
	var sd StateDict
	if err := json.Unmarshal(data, &sd); err != nil {
		return StateDict{}, fmt.Errorf("parse weights %s: %w", path, err)
	}
	if sd.Params == nil {
		sd.Params = map[string]Param{}
	}
	return sd, nil
}

// WriteStateDict writes sd to path.
func WriteStateDict(path string, sd StateDict) error {
	data, err := json.Marshal(sd)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func sortedOrEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	slices.Sort(names)
	return names
}
