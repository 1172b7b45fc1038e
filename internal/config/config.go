// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultEssayMinLength        = 10
	DefaultEncoderBackend        = EncoderHugot
	DefaultHashingDim            = 256
	DefaultMinEmbeddingDim       = 256
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultInferenceTimeout      = 60 * time.Second
	DefaultRetrievalTopN         = 100
	DefaultTopK                  = 10
	DefaultBanditEpsilon         = 0.1
	DefaultDeviceConcurrency     = 1
	DefaultRankerCacheSize       = 1024
	DefaultRankerSeed            = 1
	DefaultNegativeRatio         = 4
	DefaultPairSeed              = 42
	DefaultModelRefreshInterval  = 300.0 // seconds
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// EncoderBackend selects how essays are embedded.
type EncoderBackend string

// EncoderBackend values.
const (
	EncoderHugot   EncoderBackend = "hugot"
	EncoderOpenAI  EncoderBackend = "openai"
	EncoderHashing EncoderBackend = "hashing"
)

// ParseEncoderBackend parses a backend name, defaulting to hugot.
func ParseEncoderBackend(s string) (EncoderBackend, error) {
	switch EncoderBackend(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncoderHugot:
		return EncoderHugot, nil
	case EncoderOpenAI:
		return EncoderOpenAI, nil
	case EncoderHashing:
		return EncoderHashing, nil
	}
	return "", fmt.Errorf("unknown encoder backend %q", s)
}

// Endpoint configures a remote embedding service.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	extraParams   map[string]any
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// ExtraParams returns a copy of the provider-specific parameters.
func (e Endpoint) ExtraParams() map[string]any {
	if e.extraParams == nil {
		return nil
	}
	return maps.Clone(e.extraParams)
}

// IsConfigured returns true if the endpoint names a model.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithExtraParams sets extra provider parameters.
func WithExtraParams(params map[string]any) EndpointOption {
	return func(e *Endpoint) { e.extraParams = maps.Clone(params) }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ModelRefreshConfig configures hot reloading of model artifacts.
type ModelRefreshConfig struct {
	enabled         bool
	intervalSeconds float64
}

// NewModelRefreshConfig creates a ModelRefreshConfig with defaults.
func NewModelRefreshConfig() ModelRefreshConfig {
	return ModelRefreshConfig{
		enabled:         true,
		intervalSeconds: DefaultModelRefreshInterval,
	}
}

// Enabled returns whether refresh polling runs.
func (m ModelRefreshConfig) Enabled() bool { return m.enabled }

// Interval returns the polling interval.
func (m ModelRefreshConfig) Interval() time.Duration {
	return time.Duration(m.intervalSeconds * float64(time.Second))
}

// WithEnabled returns a copy with the enabled state set.
func (m ModelRefreshConfig) WithEnabled(enabled bool) ModelRefreshConfig {
	m.enabled = enabled
	return m
}

// WithIntervalSeconds returns a copy with the interval set.
func (m ModelRefreshConfig) WithIntervalSeconds(seconds float64) ModelRefreshConfig {
	m.intervalSeconds = seconds
	return m
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	apiKeys           []string
	corsOrigins       []string
	essayMinLength    int
	encoderBackend    EncoderBackend
	encoderModelDir   string
	ortLibraryPath    string
	hashingDim        int
	minEmbeddingDim   int
	embeddingEndpoint *Endpoint
	inferenceURL      string
	inferenceTimeout  time.Duration
	rankerDir         string
	strictRankerLoad  bool
	rankerCacheSize   int
	rankerSeed        uint64
	retrievalTopN     int
	defaultTopK       int
	banditEpsilon     float64
	deviceConcurrency int
	negativeRatio     int
	pairSeed          uint64
	modelRefresh      ModelRefreshConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".careerpath"
	}
	return filepath.Join(home, ".careerpath")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:              DefaultHost,
		port:              DefaultPort,
		dataDir:           dataDir,
		dbURL:             defaultDBURL(dataDir),
		logLevel:          DefaultLogLevel,
		logFormat:         LogFormatPretty,
		apiKeys:           []string{},
		essayMinLength:    DefaultEssayMinLength,
		encoderBackend:    DefaultEncoderBackend,
		hashingDim:        DefaultHashingDim,
		minEmbeddingDim:   DefaultMinEmbeddingDim,
		inferenceTimeout:  DefaultInferenceTimeout,
		rankerCacheSize:   DefaultRankerCacheSize,
		rankerSeed:        DefaultRankerSeed,
		retrievalTopN:     DefaultRetrievalTopN,
		defaultTopK:       DefaultTopK,
		banditEpsilon:     DefaultBanditEpsilon,
		deviceConcurrency: DefaultDeviceConcurrency,
		negativeRatio:     DefaultNegativeRatio,
		pairSeed:          DefaultPairSeed,
		modelRefresh:      NewModelRefreshConfig(),
	}
}

func defaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, "careerpath.db")
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// CORSOrigins returns the origins allowed to call the API. Empty means any.
func (c AppConfig) CORSOrigins() []string {
	return append([]string(nil), c.corsOrigins...)
}

// EssayMinLength returns the minimum normalized essay length.
func (c AppConfig) EssayMinLength() int { return c.essayMinLength }

// EncoderBackend returns the essay encoder backend.
func (c AppConfig) EncoderBackend() EncoderBackend { return c.encoderBackend }

// EncoderModelDir returns the directory holding one checkpoint per
// language, defaulting to {data_dir}/models/encoder.
func (c AppConfig) EncoderModelDir() string {
	if c.encoderModelDir != "" {
		return c.encoderModelDir
	}
	return filepath.Join(c.dataDir, "models", "encoder")
}

// ORTLibraryPath returns the ONNX Runtime shared library path, if any.
func (c AppConfig) ORTLibraryPath() string { return c.ortLibraryPath }

// HashingDim returns the embedding width of the hashing encoder.
func (c AppConfig) HashingDim() int { return c.hashingDim }

// MinEmbeddingDim returns the smallest embedding width an encoder
// checkpoint may declare.
func (c AppConfig) MinEmbeddingDim() int { return c.minEmbeddingDim }

// EmbeddingEndpoint returns the OpenAI-compatible endpoint, or nil.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// InferenceURL returns the base URL of a remote essay inference service.
// Empty means essays are encoded in-process.
func (c AppConfig) InferenceURL() string { return c.inferenceURL }

// InferenceTimeout returns the bound on one remote inference call.
func (c AppConfig) InferenceTimeout() time.Duration { return c.inferenceTimeout }

// RankerDir returns the ranker artifact root, defaulting to
// {data_dir}/models/ranker.
func (c AppConfig) RankerDir() string {
	if c.rankerDir != "" {
		return c.rankerDir
	}
	return filepath.Join(c.dataDir, "models", "ranker")
}

// StrictRankerLoad reports whether a partial ranker load is fatal.
func (c AppConfig) StrictRankerLoad() bool { return c.strictRankerLoad }

// RankerCacheSize returns the item embedding cache capacity.
func (c AppConfig) RankerCacheSize() int { return c.rankerCacheSize }

// RankerSeed returns the seed for parameters a checkpoint does not cover.
func (c AppConfig) RankerSeed() uint64 { return c.rankerSeed }

// RetrievalTopN returns how many candidates retrieval returns.
func (c AppConfig) RetrievalTopN() int { return c.retrievalTopN }

// DefaultTopK returns the number of careers exposed when a request omits it.
func (c AppConfig) DefaultTopK() int { return c.defaultTopK }

// BanditEpsilon returns the initial exploration rate.
func (c AppConfig) BanditEpsilon() float64 { return c.banditEpsilon }

// DeviceConcurrency returns how many forward passes may run at once.
func (c AppConfig) DeviceConcurrency() int { return c.deviceConcurrency }

// NegativeRatio returns the default negatives per seen job.
func (c AppConfig) NegativeRatio() int { return c.negativeRatio }

// PairSeed returns the default negative sampling seed.
func (c AppConfig) PairSeed() uint64 { return c.pairSeed }

// ModelRefresh returns the model refresh config.
func (c AppConfig) ModelRefresh() ModelRefreshConfig { return c.modelRefresh }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory. A database URL still pointing at the
// previous default location follows the new directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if c.dbURL == "" || c.dbURL == defaultDBURL(c.dataDir) {
			c.dbURL = defaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) { c.corsOrigins = append([]string(nil), origins...) }
}

// WithEssayMinLength sets the minimum essay length.
func WithEssayMinLength(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.essayMinLength = n
		}
	}
}

// WithEncoderBackend sets the encoder backend.
func WithEncoderBackend(b EncoderBackend) AppConfigOption {
	return func(c *AppConfig) { c.encoderBackend = b }
}

// WithEncoderModelDir sets the encoder checkpoint root.
func WithEncoderModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.encoderModelDir = dir }
}

// WithORTLibraryPath sets the ONNX Runtime library path.
func WithORTLibraryPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.ortLibraryPath = path }
}

// WithHashingDim sets the hashing encoder width.
func WithHashingDim(dim int) AppConfigOption {
	return func(c *AppConfig) {
		if dim > 0 {
			c.hashingDim = dim
		}
	}
}

// WithMinEmbeddingDim sets the smallest accepted checkpoint width.
func WithMinEmbeddingDim(dim int) AppConfigOption {
	return func(c *AppConfig) {
		if dim > 0 {
			c.minEmbeddingDim = dim
		}
	}
}

// WithEmbeddingEndpoint sets the OpenAI-compatible embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithInferenceURL sets the remote inference service URL.
func WithInferenceURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.inferenceURL = url }
}

// WithInferenceTimeout sets the remote inference timeout.
func WithInferenceTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.inferenceTimeout = d
		}
	}
}

// WithRankerDir sets the ranker artifact root.
func WithRankerDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.rankerDir = dir }
}

// WithStrictRankerLoad makes partial ranker loads fatal.
func WithStrictRankerLoad(strict bool) AppConfigOption {
	return func(c *AppConfig) { c.strictRankerLoad = strict }
}

// WithRankerCacheSize sets the item embedding cache capacity.
func WithRankerCacheSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.rankerCacheSize = n
		}
	}
}

// WithRankerSeed sets the ranker initialization seed.
func WithRankerSeed(seed uint64) AppConfigOption {
	return func(c *AppConfig) { c.rankerSeed = seed }
}

// WithRetrievalTopN sets the retrieval depth.
func WithRetrievalTopN(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.retrievalTopN = n
		}
	}
}

// WithDefaultTopK sets the default number of exposed careers.
func WithDefaultTopK(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.defaultTopK = n
		}
	}
}

// WithBanditEpsilon sets the initial exploration rate.
func WithBanditEpsilon(eps float64) AppConfigOption {
	return func(c *AppConfig) {
		if eps >= 0 && eps <= 1 {
			c.banditEpsilon = eps
		}
	}
}

// WithDeviceConcurrency sets the forward pass concurrency.
func WithDeviceConcurrency(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.deviceConcurrency = n
		}
	}
}

// WithNegativeRatio sets the default negative ratio.
func WithNegativeRatio(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n >= 0 {
			c.negativeRatio = n
		}
	}
}

// WithPairSeed sets the default negative sampling seed.
func WithPairSeed(seed uint64) AppConfigOption {
	return func(c *AppConfig) { c.pairSeed = seed }
}

// WithModelRefreshConfig sets the model refresh config.
func WithModelRefreshConfig(m ModelRefreshConfig) AppConfigOption {
	return func(c *AppConfig) { c.modelRefresh = m }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a copy of the config with opts applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes describing the configuration. Secrets are
// masked or reduced to counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("log_level", c.logLevel),
		slog.String("encoder_backend", string(c.encoderBackend)),
		slog.String("encoder_model_dir", c.EncoderModelDir()),
		slog.String("ranker_dir", c.RankerDir()),
		slog.String("inference_url", c.inferenceURL),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("device_concurrency", c.deviceConcurrency),
		slog.Float64("bandit_epsilon", c.banditEpsilon),
		slog.Bool("model_refresh_enabled", c.modelRefresh.Enabled()),
		slog.Duration("model_refresh_interval", c.modelRefresh.Interval()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList splits a comma-separated value, dropping blank entries.
func ParseList(s string) []string {
	out := []string{}
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
