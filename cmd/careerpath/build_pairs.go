package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath/application/service"
	"github.com/helixml/careerpath/domain/repository"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/internal/config"
	"github.com/helixml/careerpath/internal/log"
)

type buildPairsFlags struct {
	envFile       string
	out           string
	since         string
	until         string
	users         []int64
	negativeRatio int
	seed          uint64
}

func buildPairsCmd() *cobra.Command {
	var f buildPairsFlags

	cmd := &cobra.Command{
		Use:   "build-pairs",
		Short: "Export ranker training pairs as JSON lines",
		Long: `Build labelled (user_id, job_id, label) pairs from logged interaction events.

Clicks, saves and applies are positives; jobs the user only saw are
negatives. For every user, negative-ratio x (jobs seen) unseen catalog jobs
are sampled as extra negatives. Sampling is seeded, so the output is
reproducible. Only the database is needed; no models are loaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildPairs(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().StringVar(&f.since, "since", "", "Only events at or after this RFC 3339 time")
	cmd.Flags().StringVar(&f.until, "until", "", "Only events before this RFC 3339 time")
	cmd.Flags().Int64SliceVar(&f.users, "user", nil, "Restrict to these user ids")
	cmd.Flags().IntVar(&f.negativeRatio, "negative-ratio", -1, "Negatives per seen job (default: NEGATIVE_RATIO)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Sampling seed (default: PAIR_SEED)")

	return cmd
}

func runBuildPairs(cmd *cobra.Command, f buildPairsFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(f.envFile)
	if err != nil {
		return err
	}
	var overrides []config.AppConfigOption
	if f.negativeRatio >= 0 {
		overrides = append(overrides, config.WithNegativeRatio(f.negativeRatio))
	}
	if cmd.Flags().Changed("seed") {
		overrides = append(overrides, config.WithPairSeed(f.seed))
	}
	cfg = cfg.Apply(overrides...)

	// stdout may carry the pairs, so logs go to stderr.
	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())

	options, err := pairFilters(f)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	var (
		w    io.Writer = cmd.OutOrStdout()
		file *os.File
	)
	if f.out != "" && f.out != "-" {
		file, err = os.Create(f.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		w = file
	}

	training := service.NewTraining(
		persistence.NewEventStore(db),
		persistence.NewCareerStore(db),
		cfg.NegativeRatio(),
		cfg.PairSeed(),
		logger,
	)
	n, err := training.Export(ctx, w, options...)
	if file != nil {
		err = errors.Join(err, closeOutput(file))
	}
	if err != nil {
		return err
	}
	logger.Info("build-pairs finished", slog.Int("pairs", n), slog.String("out", f.out))
	return nil
}

func closeOutput(file *os.File) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func pairFilters(f buildPairsFlags) ([]repository.Option, error) {
	var options []repository.Option
	if f.since != "" {
		t, err := time.Parse(time.RFC3339, f.since)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		options = append(options, repository.WithSince(t))
	}
	if f.until != "" {
		t, err := time.Parse(time.RFC3339, f.until)
		if err != nil {
			return nil, fmt.Errorf("--until: %w", err)
		}
		options = append(options, repository.WithUntil(t))
	}
	if len(f.users) > 0 {
		options = append(options, repository.WithUserIDIn(f.users))
	}
	return options, nil
}
