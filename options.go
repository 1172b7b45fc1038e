package careerpath

import (
	"io"
	"log/slog"

	"github.com/helixml/careerpath/application/service"
	"github.com/helixml/careerpath/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	app     config.AppConfig
	logger  *slog.Logger
	remote  service.RemoteInference
	rand    service.RandSource
	closers []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{app: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the whole application configuration.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.app = cfg
	}
}

// WithConfigOptions applies options on top of the current configuration.
func WithConfigOptions(opts ...config.AppConfigOption) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithRemoteInference sends essays to r instead of a local encoder. It
// takes precedence over INFERENCE_URL.
func WithRemoteInference(r service.RemoteInference) Option {
	return func(c *clientConfig) {
		c.remote = r
	}
}

// WithRandSource injects the bandit's randomness, for reproducible
// recommendations.
func WithRandSource(src service.RandSource) Option {
	return func(c *clientConfig) {
		c.rand = src
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(cl io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, cl)
	}
}
