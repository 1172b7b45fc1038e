package ranker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default artifact file names, used when no config file names them.
const (
	DefaultModelFile        = "ranker_weights.json"
	DefaultUserFeaturesFile = "user_features.json"
	DefaultItemFeaturesFile = "item_features.json"
)

// configFiles are tried in order; the first one present wins.
var configFiles = []string{"ranker_config.json", "ranker_config.yaml", "ranker_config.yml"}

// ArtifactConfig names the files of one ranker artifact directory.
type ArtifactConfig struct {
	ModelFile        string `json:"model_file" yaml:"model_file"`
	UserFeaturesFile string `json:"user_features_file" yaml:"user_features_file"`
	ItemFeaturesFile string `json:"item_features_file" yaml:"item_features_file"`
}

// DefaultArtifactConfig returns the default file names.
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		ModelFile:        DefaultModelFile,
		UserFeaturesFile: DefaultUserFeaturesFile,
		ItemFeaturesFile: DefaultItemFeaturesFile,
	}
}

// ReadArtifactConfig reads the optional config file in dir. A missing file
// yields the defaults; fields left empty keep their default.
func ReadArtifactConfig(dir string) (ArtifactConfig, error) {
	cfg := DefaultArtifactConfig()
	for _, name := range configFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("read %s: %w", name, err)
		}

		var parsed ArtifactConfig
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(data, &parsed)
		} else {
			err = yaml.Unmarshal(data, &parsed)
		}
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", name, err)
		}
		return cfg.merge(parsed), nil
	}
	return cfg, nil
}

func (c ArtifactConfig) merge(o ArtifactConfig) ArtifactConfig {
	if o.ModelFile != "" {
		c.ModelFile = o.ModelFile
	}
	if o.UserFeaturesFile != "" {
		c.UserFeaturesFile = o.UserFeaturesFile
	}
	if o.ItemFeaturesFile != "" {
		c.ItemFeaturesFile = o.ItemFeaturesFile
	}
	return c
}

// resolve makes a file name absolute relative to dir.
func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
