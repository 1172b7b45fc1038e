package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/internal/database"
)

const (
	pgvTable           = "career_vectors"
	pgvCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`
	pgvCreateTable     = `
CREATE TABLE IF NOT EXISTS career_vectors (
    career_id VARCHAR(255) PRIMARY KEY,
    embedding VECTOR(%d) NOT NULL
)`
	pgvCreateIndex = `
CREATE INDEX IF NOT EXISTS career_vectors_idx
ON career_vectors
USING hnsw (embedding vector_cosine_ops)`
	pgvDimension = `
SELECT a.atttypmod AS dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = 'career_vectors'
AND a.attname = 'embedding'`
)

// ErrPgvectorInitialization indicates the pgvector table could not be prepared.
var ErrPgvectorInitialization = errors.New("failed to initialize pgvector index")

type pgVectorRow struct {
	CareerID  string            `gorm:"column:career_id;primaryKey"`
	Embedding database.PgVector `gorm:"column:embedding"`
}

func (pgVectorRow) TableName() string { return pgvTable }

// PgVectorIndex searches career vectors inside PostgreSQL using the
// pgvector cosine distance operator.
type PgVectorIndex struct {
	db     database.Database
	dim    int
	size   atomic.Int64
	logger *slog.Logger
}

// NewPgVectorIndex prepares the extension, table and HNSW index for dim.
func NewPgVectorIndex(ctx context.Context, db database.Database, dim int, logger *slog.Logger) (*PgVectorIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tx := db.Session(ctx)

	if err := tx.Exec(pgvCreateExtension).Error; err != nil {
		return nil, errors.Join(ErrPgvectorInitialization, fmt.Errorf("create extension: %w", err))
	}
	if err := tx.Exec(fmt.Sprintf(pgvCreateTable, dim)).Error; err != nil {
		return nil, errors.Join(ErrPgvectorInitialization, fmt.Errorf("create table: %w", err))
	}
	if err := tx.Exec(pgvCreateIndex).Error; err != nil {
		logger.Warn("failed to create vector index (may already exist)", "error", err)
	}

	var existing int
	result := tx.Raw(pgvDimension).Scan(&existing)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Join(ErrPgvectorInitialization, fmt.Errorf("check dimension: %w", result.Error))
	}
	if result.RowsAffected > 0 && existing != dim {
		return nil, errs.Validationf("career_vectors has dimension %d, encoder has %d", existing, dim)
	}

	idx := &PgVectorIndex{db: db, dim: dim, logger: logger}
	if err := idx.refreshSize(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load inserts every stored career vector that is not yet indexed. Indexed
// vectors are immutable, so existing rows are left alone.
func (p *PgVectorIndex) Load(ctx context.Context, store career.Store) error {
	embeddings, err := store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("load career embeddings: %w", err)
	}

	rows := make([]pgVectorRow, 0, len(embeddings))
	for _, e := range embeddings {
		if len(e.Vector) != p.dim {
			return errs.Validationf("career %s has dimension %d, index has %d", e.ID, len(e.Vector), p.dim)
		}
		rows = append(rows, pgVectorRow{CareerID: e.ID, Embedding: database.NewPgVector(e.Vector)})
	}

	if len(rows) > 0 {
		err = database.WithTransaction(ctx, p.db, func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error
		})
		if err != nil {
			return fmt.Errorf("sync career vectors: %w", err)
		}
	}
	return p.refreshSize(ctx)
}

func (p *PgVectorIndex) refreshSize(ctx context.Context) error {
	var n int64
	if err := p.db.Session(ctx).Model(&pgVectorRow{}).Count(&n).Error; err != nil {
		return fmt.Errorf("count career vectors: %w", err)
	}
	p.size.Store(n)
	return nil
}

// Size returns the number of indexed careers as of the last load.
func (p *PgVectorIndex) Size() int { return int(p.size.Load()) }

// Search orders by cosine distance; similarity is 1 - distance.
func (p *PgVectorIndex) Search(ctx context.Context, query []float64, topN int) ([]career.Candidate, error) {
	if topN <= 0 {
		return []career.Candidate{}, nil
	}
	if len(query) != p.dim {
		return nil, errs.Validationf("query dimension %d does not match index dimension %d", len(query), p.dim)
	}

	q := database.NewPgVector(query).String()
	var rows []struct {
		CareerID string  `gorm:"column:career_id"`
		Distance float64 `gorm:"column:distance"`
	}
	err := p.db.Session(ctx).
		Table(pgvTable).
		Select("career_id, embedding <=> ? AS distance", q).
		Order("distance ASC, career_id ASC").
		Limit(topN).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]career.Candidate, len(rows))
	for i, row := range rows {
		out[i] = career.Candidate{JobID: row.CareerID, Similarity: 1 - row.Distance}
	}
	career.SortCandidates(out)
	return out, nil
}
