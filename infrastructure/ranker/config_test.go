package ranker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadArtifactConfig(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		want  ArtifactConfig
		isErr bool
	}{
		{
			name: "missing file uses defaults",
			want: DefaultArtifactConfig(),
		},
		{
			name: "json",
			file: "ranker_config.json",
			body: `{"model_file":"mlp.json","user_features_file":"users.json","item_features_file":"items.json"}`,
			want: ArtifactConfig{ModelFile: "mlp.json", UserFeaturesFile: "users.json", ItemFeaturesFile: "items.json"},
		},
		{
			name: "yaml keeps unset defaults",
			file: "ranker_config.yaml",
			body: "model_file: weights-v3.json\n",
			want: ArtifactConfig{ModelFile: "weights-v3.json", UserFeaturesFile: DefaultUserFeaturesFile, ItemFeaturesFile: DefaultItemFeaturesFile},
		},
		{
			name:  "malformed",
			file:  "ranker_config.json",
			body:  `{"model_file":`,
			isErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.body), 0o644))
			}

			got, err := ReadArtifactConfig(dir)
			if tt.isErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
