// Package main is the entry point for the careerpath CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/database"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "careerpath",
		Short: "Career recommendation server",
		Long: `careerpath infers RIASEC and Big Five traits from essays and questionnaires,
retrieves matching careers, ranks them with a learned pairwise model and
records user feedback for retraining.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(indexCareersCmd())
	cmd.AddCommand(buildPairsCmd())
	cmd.AddCommand(downloadModelCmd())
	cmd.AddCommand(initModelsCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens and migrates the configured database for commands that
// only need storage.
func openDatabase(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (database.Database, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return database.Database{}, fmt.Errorf("create data directory: %w", err)
	}
	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return database.Database{}, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close database", slog.Any("error", cerr))
		}
		return database.Database{}, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}
