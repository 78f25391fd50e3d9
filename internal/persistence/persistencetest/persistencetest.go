// Package persistencetest opens migrated in-memory support databases for tests.
package persistencetest

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/persistence"
)

// NewSupportDB returns a migrated, seeded in-memory database closed at test cleanup.
func NewSupportDB(t testing.TB) *persistence.SupportDB {
	t.Helper()
	logger := zap.NewNop()

	db, err := persistence.OpenLocalSQLite(context.Background(), ":memory:", logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(db.Close)

	if err := persistence.RunMigrations(db, logger); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if err := persistence.SeedSupportContent(context.Background(), db, logger); err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return db
}
