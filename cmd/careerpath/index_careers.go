package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixml/careerpath/application/service"
	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/infrastructure/encoder"
	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/internal/device"
	"github.com/helixml/careerpath/internal/log"
)

// careerRecord is one line of the careers JSONL file.
type careerRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RIASEC      []float64 `json:"riasec,omitempty"`
	Embedding   []float64 `json:"embedding,omitempty"`
}

func indexCareersCmd() *cobra.Command {
	var (
		envFile string
		file    string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "index-careers",
		Short: "Load careers into the retrieval catalog",
		Long: `Load careers from a JSON lines file into the catalog.

Each line is {"id", "title", "description", "riasec", "embedding"}. Careers
without an embedding are embedded from "title. description" with the
configured encoder. Vectors are L2-normalized before storage. Existing ids
are rejected unless --replace is given. A running server picks up the new
careers on its next model refresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open careers file: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return runIndexCareers(cmd.Context(), envFile, in, replace)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Careers JSONL file, - for stdin")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite careers that are already indexed")

	return cmd
}

func runIndexCareers(ctx context.Context, envFile string, in io.Reader, replace bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := log.Configure(cfg)

	careers, err := readCareers(in)
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

	var embedder service.TextEmbedder
	if needsEmbedding(careers) {
		enc, registry, err := encoder.Open(cfg, device.New("model", cfg.DeviceConcurrency(), logger), logger)
		if err != nil {
			return fmt.Errorf("load encoder: %w", err)
		}
		defer func() { _ = registry.Close() }()
		embedder = enc
	}

	catalog := service.NewCatalog(persistence.NewCareerStore(db), embedder, nil, logger)
	n, err := catalog.Index(ctx, careers, replace)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d careers\n", n)
	return nil
}

func readCareers(in io.Reader) ([]career.Career, error) {
	var out []career.Career
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec careerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, career.Career{
			ID:          rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			RIASEC:      rec.RIASEC,
			Embedding:   rec.Embedding,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read careers: %w", err)
	}
	return out, nil
}

func needsEmbedding(careers []career.Career) bool {
	for _, c := range careers {
		if len(c.Embedding) == 0 {
			return true
		}
	}
	return false
}
