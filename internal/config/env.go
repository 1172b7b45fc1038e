package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Nested structs use an
// underscore delimiter (e.g. EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.careerpath
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/careerpath.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed browser origins.
	// Env: CORS_ALLOWED_ORIGINS (default: any)
	CORSOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// EssayMinLength is the minimum normalized essay length.
	// Env: ESSAY_MIN_LENGTH (default: 10)
	EssayMinLength int `envconfig:"ESSAY_MIN_LENGTH" default:"10"`

	// Encoder configures essay encoding.
	Encoder EncoderEnv `envconfig:"ENCODER"`

	// EmbeddingEndpoint configures the OpenAI-compatible encoder backend.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// Inference configures a remote essay inference service.
	Inference InferenceEnv `envconfig:"INFERENCE"`

	// Ranker configures the pairwise ranker.
	Ranker RankerEnv `envconfig:"RANKER"`

	// RetrievalTopN is the number of candidates passed to the ranker.
	// Env: RETRIEVAL_TOP_N (default: 100)
	RetrievalTopN int `envconfig:"RETRIEVAL_TOP_N" default:"100"`

	// DefaultTopK is the number of careers returned when a request omits it.
	// Env: DEFAULT_TOP_K (default: 10)
	DefaultTopK int `envconfig:"DEFAULT_TOP_K" default:"10"`

	// BanditEpsilon is the initial exploration rate.
	// Env: BANDIT_EPSILON (default: 0.1)
	BanditEpsilon float64 `envconfig:"BANDIT_EPSILON" default:"0.1"`

	// DeviceConcurrency bounds concurrent forward passes.
	// Env: DEVICE_CONCURRENCY (default: 1)
	DeviceConcurrency int `envconfig:"DEVICE_CONCURRENCY" default:"1"`

	// NegativeRatio is the default number of negatives per seen job.
	// Env: NEGATIVE_RATIO (default: 4)
	NegativeRatio int `envconfig:"NEGATIVE_RATIO" default:"4"`

	// PairSeed seeds negative sampling.
	// Env: PAIR_SEED (default: 42)
	PairSeed uint64 `envconfig:"PAIR_SEED" default:"42"`

	// ModelRefresh configures model hot reloading.
	ModelRefresh ModelRefreshEnv `envconfig:"MODEL_REFRESH"`
}

// EncoderEnv holds environment configuration for the essay encoder.
type EncoderEnv struct {
	// Backend is one of hugot, openai or hashing.
	// Env: ENCODER_BACKEND (default: hugot)
	Backend string `envconfig:"BACKEND" default:"hugot"`

	// ModelDir holds one checkpoint directory per language.
	// Env: ENCODER_MODEL_DIR
	ModelDir string `envconfig:"MODEL_DIR"`

	// ORTLibraryPath is the ONNX Runtime library for ORT builds.
	// Env: ENCODER_ORT_LIBRARY_PATH
	ORTLibraryPath string `envconfig:"ORT_LIBRARY_PATH"`

	// HashingDim is the embedding width of the hashing backend.
	// Env: ENCODER_HASHING_DIM (default: 256)
	HashingDim int `envconfig:"HASHING_DIM" default:"256"`

	// MinDim rejects checkpoints that declare a narrower embedding.
	// Env: ENCODER_MIN_DIM (default: 256)
	MinDim int `envconfig:"MIN_DIM" default:"256"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g. text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// ExtraParams is a JSON-encoded map of extra parameters.
	// Env: *_EXTRA_PARAMS
	ExtraParams string `envconfig:"EXTRA_PARAMS"`
}

// InferenceEnv holds environment configuration for remote inference.
type InferenceEnv struct {
	// URL is the base URL of the inference service.
	// Env: INFERENCE_URL
	URL string `envconfig:"URL"`

	// Timeout bounds one inference call, in seconds.
	// Env: INFERENCE_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`
}

// RankerEnv holds environment configuration for the ranker.
type RankerEnv struct {
	// Dir is the artifact root.
	// Env: RANKER_DIR
	Dir string `envconfig:"DIR"`

	// StrictLoad makes a partial checkpoint load fatal.
	// Env: RANKER_STRICT_LOAD (default: false)
	StrictLoad bool `envconfig:"STRICT_LOAD" default:"false"`

	// CacheSize is the item embedding cache capacity.
	// Env: RANKER_CACHE_SIZE (default: 1024)
	CacheSize int `envconfig:"CACHE_SIZE" default:"1024"`

	// Seed initializes parameters a checkpoint does not provide.
	// Env: RANKER_SEED (default: 1)
	Seed uint64 `envconfig:"SEED" default:"1"`
}

// ModelRefreshEnv holds environment configuration for model hot reloading.
type ModelRefreshEnv struct {
	// Enabled controls whether refresh polling runs.
	// Env: MODEL_REFRESH_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// IntervalSeconds is the polling interval.
	// Env: MODEL_REFRESH_INTERVAL_SECONDS (default: 300)
	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"300"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "CAREERPATH" reads CAREERPATH_DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() (AppConfig, error) {
	backend, err := ParseEncoderBackend(e.Encoder.Backend)
	if err != nil {
		return AppConfig{}, err
	}

	opts := []AppConfigOption{
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithEncoderBackend(backend),
		WithEssayMinLength(e.EssayMinLength),
		WithHashingDim(e.Encoder.HashingDim),
		WithMinEmbeddingDim(e.Encoder.MinDim),
		WithInferenceTimeout(seconds(e.Inference.Timeout)),
		WithStrictRankerLoad(e.Ranker.StrictLoad),
		WithRankerCacheSize(e.Ranker.CacheSize),
		WithRankerSeed(e.Ranker.Seed),
		WithRetrievalTopN(e.RetrievalTopN),
		WithDefaultTopK(e.DefaultTopK),
		WithDeviceConcurrency(e.DeviceConcurrency),
		WithNegativeRatio(e.NegativeRatio),
		WithPairSeed(e.PairSeed),
		WithModelRefreshConfig(e.ModelRefresh.ToModelRefreshConfig()),
	}
	if e.BanditEpsilon < 0 || e.BanditEpsilon > 1 {
		return AppConfig{}, fmt.Errorf("BANDIT_EPSILON must be within [0,1], got %v", e.BanditEpsilon)
	}
	opts = append(opts, WithBanditEpsilon(e.BanditEpsilon))

	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.APIKeys != "" {
		opts = append(opts, WithAPIKeys(ParseList(e.APIKeys)))
	}
	if e.CORSOrigins != "" {
		opts = append(opts, WithCORSOrigins(ParseList(e.CORSOrigins)))
	}
	if e.Encoder.ModelDir != "" {
		opts = append(opts, WithEncoderModelDir(e.Encoder.ModelDir))
	}
	if e.Encoder.ORTLibraryPath != "" {
		opts = append(opts, WithORTLibraryPath(e.Encoder.ORTLibraryPath))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.Inference.URL != "" {
		opts = append(opts, WithInferenceURL(strings.TrimRight(e.Inference.URL, "/")))
	}
	if e.Ranker.Dir != "" {
		opts = append(opts, WithRankerDir(e.Ranker.Dir))
	}

	return NewAppConfigWithOptions(opts...), nil
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	if params := parseExtraParams(e.ExtraParams); params != nil {
		opts = append(opts, WithExtraParams(params))
	}
	return NewEndpointWithOptions(opts...)
}

// ToModelRefreshConfig converts ModelRefreshEnv to ModelRefreshConfig.
func (m ModelRefreshEnv) ToModelRefreshConfig() ModelRefreshConfig {
	return NewModelRefreshConfig().
		WithEnabled(m.Enabled).
		WithIntervalSeconds(m.IntervalSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, "json") {
		return LogFormatJSON
	}
	return LogFormatPretty
}

func parseExtraParams(s string) map[string]any {
	if s == "" {
		return nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(s), &params); err != nil {
		return nil
	}
	return params
}
