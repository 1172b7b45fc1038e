package main

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath/domain/essay"
	"github.com/helixml/careerpath/infrastructure/encoder"
	"github.com/helixml/careerpath/internal/log"
)

func downloadModelCmd() *cobra.Command {
	var (
		envFile string
		langs   []string
		dim     int
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "download-model",
		Short: "Fetch the ONNX sentence encoders for the hugot backend",
		Long: `Download the default sentence encoder for each language into
ENCODER_MODEL_DIR/<lang>. Models already on disk are left alone.

Untrained trait heads are written next to a model that has none, so the
checkpoint loads straight away. Replace heads.json with trained heads
before serving real users.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			logger := log.Configure(cfg)

			selected := essay.Languages()
			if len(langs) > 0 {
				selected = selected[:0:0]
				for _, l := range langs {
					lang := essay.Language(l)
					if _, ok := encoder.DefaultModels[lang]; !ok {
						return fmt.Errorf("no default model for language %q", l)
					}
					if !slices.Contains(selected, lang) {
						selected = append(selected, lang)
					}
				}
			}

			for i, lang := range selected {
				dest := filepath.Join(cfg.EncoderModelDir(), string(lang))
				repo := encoder.DefaultModels[lang]
				logger.Info("downloading encoder", "lang", lang, "repo", repo, "dest", dest)

				path, err := encoder.Download(repo, dest)
				if err != nil {
					return err
				}
				if err := encoder.WriteHeads(dest, encoder.InitHeads(dim, seed+uint64(i)), false); err != nil {
					return fmt.Errorf("write heads for %s: %w", lang, err)
				}
				fmt.Printf("%s: %s\n", lang, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Languages to fetch (default: all)")
	cmd.Flags().IntVar(&dim, "dim", 384, "Encoder output dimension used for new heads")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for new heads")

	return cmd
}
