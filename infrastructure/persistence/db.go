// Package persistence stores trait snapshots, interaction events, the
// career catalog and user embeddings with GORM.
package persistence

import (
	"context"

	"github.com/helixml/careerpath/internal/database"
)

// AutoMigrate creates or updates every table the core owns.
func AutoMigrate(db database.Database) error {
	return db.Session(context.Background()).AutoMigrate(
		&TraitSnapshotModel{},
		&CareerEventModel{},
		&CareerModel{},
		&UserEmbeddingModel{},
	)
}
