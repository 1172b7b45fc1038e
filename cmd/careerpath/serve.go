package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath"
	"github.com/helixml/careerpath/infrastructure/api"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.careerpath)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/careerpath.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys
  CORS_ALLOWED_ORIGINS         Comma-separated browser origins (default: any)
  ESSAY_MIN_LENGTH             Minimum normalized essay length (default: 10)

  ENCODER_BACKEND              hugot, openai or hashing (default: hugot)
  ENCODER_MODEL_DIR            Checkpoints, one directory per language
  ENCODER_ORT_LIBRARY_PATH     ONNX Runtime library for ORT builds
  ENCODER_MIN_DIM              Smallest accepted checkpoint width (default: 256)
  EMBEDDING_ENDPOINT_*         OpenAI-compatible embedding endpoint
    BASE_URL, MODEL, API_KEY, TIMEOUT, MAX_RETRIES

  INFERENCE_URL                Remote essay inference service
  INFERENCE_TIMEOUT            Remote inference timeout (default: 60s)

  RANKER_DIR                   Ranker artifact root (default: {data_dir}/models/ranker)
  RANKER_STRICT_LOAD           Fail on partially loaded parameters
  RETRIEVAL_TOP_N              Candidates passed to the ranker (default: 100)
  DEFAULT_TOP_K                Careers returned by default (default: 10)
  BANDIT_EPSILON               Initial exploration rate (default: 0.1)
  DEVICE_CONCURRENCY           Concurrent forward passes (default: 1)

  MODEL_REFRESH_ENABLED        Poll for new ranker artifacts (default: true)
  MODEL_REFRESH_INTERVAL_SECONDS  Poll interval (default: 300)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)
	addr := cfg.Addr()

	logger := log.Configure(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting careerpath", attrs...)

	client, err := careerpath.New(careerpath.WithConfig(cfg), careerpath.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create careerpath client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close careerpath client", slog.Any("error", err))
		}
	}()

	api.Version = version
	apiServer := api.NewAPIServer(client, cfg.APIKeys())
	router := apiServer.Router()
	apiServer.MountRoutes()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"careerpath","version":"%s","docs":"/docs"}`, version)
	})

	docsRouter := apiServer.DocsRouter("/docs/openapi.json")
	router.Mount("/docs", docsRouter.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(addr, logger, api.WithAllowedOrigins(cfg.CORSOrigins()...))
	server.Router().Mount("/", router)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	logger.Info("starting server", slog.String("addr", addr))
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
