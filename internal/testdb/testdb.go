// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/infrastructure/persistence"
	"github.com/helixml/careerpath/internal/database"
)

// New returns an in-memory database with the careerpath schema. It is
// closed when the test ends. Each call gets its own database.
func New(t testing.TB) database.Database {
	t.Helper()

	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.AutoMigrate(db), "migrate test database")
	return db
}
