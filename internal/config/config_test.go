package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host())
	assert.Equal(t, DefaultPort, cfg.Port())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DefaultDataDir(), cfg.DataDir())
	assert.Equal(t, "sqlite:///"+filepath.Join(DefaultDataDir(), "careerpath.db"), cfg.DBURL())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Equal(t, DefaultEssayMinLength, cfg.EssayMinLength())
	assert.Equal(t, EncoderHugot, cfg.EncoderBackend())
	assert.Equal(t, filepath.Join(DefaultDataDir(), "models", "encoder"), cfg.EncoderModelDir())
	assert.Equal(t, filepath.Join(DefaultDataDir(), "models", "ranker"), cfg.RankerDir())
	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout())
	assert.Nil(t, cfg.EmbeddingEndpoint())
	assert.Empty(t, cfg.APIKeys())
	assert.Equal(t, 1, cfg.DeviceConcurrency())
	assert.Equal(t, 5*time.Minute, cfg.ModelRefresh().Interval())
}

func TestWithDataDir_MovesDefaultDB(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDataDir("/data"))
	assert.Equal(t, "sqlite:///"+filepath.Join("/data", "careerpath.db"), cfg.DBURL())

	cfg = NewAppConfigWithOptions(WithDBURL("postgres://u:p@db/careers"), WithDataDir("/data"))
	assert.Equal(t, "postgres://u:p@db/careers", cfg.DBURL())
}

func TestApply_IsImmutable(t *testing.T) {
	base := NewAppConfig()
	changed := base.Apply(WithPort(1234), WithAPIKeys([]string{"k"}))

	assert.Equal(t, DefaultPort, base.Port())
	assert.Equal(t, 1234, changed.Port())
	assert.Empty(t, base.APIKeys())

	keys := changed.APIKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"k"}, changed.APIKeys())
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithDeviceConcurrency(0),
		WithBanditEpsilon(2),
		WithRetrievalTopN(-1),
		WithInferenceTimeout(0),
	)

	assert.Equal(t, DefaultDeviceConcurrency, cfg.DeviceConcurrency())
	assert.Equal(t, DefaultBanditEpsilon, cfg.BanditEpsilon())
	assert.Equal(t, DefaultRetrievalTopN, cfg.RetrievalTopN())
	assert.Equal(t, DefaultInferenceTimeout, cfg.InferenceTimeout())
}

func TestParseEncoderBackend(t *testing.T) {
	for in, want := range map[string]EncoderBackend{
		"":        EncoderHugot,
		"HUGOT":   EncoderHugot,
		"openai":  EncoderOpenAI,
		"hashing": EncoderHashing,
	} {
		got, err := ParseEncoderBackend(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseEncoderBackend("torch")
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{}, ParseList(""))
	assert.Equal(t, []string{"a", "b"}, ParseList(" a ,b, "))
}

func TestLogAttrs_MasksPostgres(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDBURL("postgres://user:secret@db/x"), WithAPIKeys([]string{"k1", "k2"}))

	attrs := map[string]slog.Value{}
	for _, a := range cfg.LogAttrs() {
		attrs[a.Key] = a.Value
	}

	assert.Equal(t, "postgres://***@***", attrs["db_url"].String())
	assert.Equal(t, int64(2), attrs["api_keys_count"].Int64())
}

func TestEndpoint_Defaults(t *testing.T) {
	e := NewEndpointWithOptions(WithModel("m"), WithExtraParams(map[string]any{"a": 1}))

	assert.True(t, e.IsConfigured())
	assert.Equal(t, DefaultEndpointTimeout, e.Timeout())
	assert.Equal(t, DefaultEndpointMaxRetries, e.MaxRetries())
	params := e.ExtraParams()
	params["a"] = 2
	assert.Equal(t, 1, e.ExtraParams()["a"])
	assert.False(t, NewEndpoint().IsConfigured())
}
