package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/infrastructure/encoder"
	"github.com/helixml/careerpath/infrastructure/ranker"
	"github.com/helixml/careerpath/internal/log"
)

func initModelsCmd() *cobra.Command {
	var (
		envFile  string
		dim      int
		artifact string
		seed     uint64
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init-models",
		Short: "Write untrained encoder heads and a ranker artifact",
		Long: `Write seeded, untrained trait heads for every language and a ranker
artifact under RANKER_DIR/<artifact>. Together with ENCODER_BACKEND=hashing
this gives a server that starts without downloading anything, which is
useful for development and smoke tests.

Existing files are kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			logger := log.Configure(cfg)

			if dim <= 0 {
				dim = cfg.HashingDim()
			}

			for i, lang := range essay.Languages() {
				dir := filepath.Join(cfg.EncoderModelDir(), string(lang))
				if err := encoder.WriteHeads(dir, encoder.InitHeads(dim, seed+uint64(i)), force); err != nil {
					return fmt.Errorf("write heads for %s: %w", lang, err)
				}
				logger.Info("encoder heads ready", "lang", lang, "dir", dir, "dim", dim)
			}

			dir, err := ranker.InitArtifact(filepath.Join(cfg.RankerDir(), artifact), dim, seed, force)
			if err != nil {
				return fmt.Errorf("write ranker artifact: %w", err)
			}
			logger.Info("ranker artifact ready", "dir", dir, "dim", dim)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVar(&dim, "dim", 0, "Embedding dimension (default: ENCODER_HASHING_DIM)")
	cmd.Flags().StringVar(&artifact, "artifact", "v1", "Ranker artifact version directory")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for the initial weights")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing heads and artifacts")

	return cmd
}
