// Package testdb provides a migrated and seeded in-memory settings database for tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ci-water/adhydro-streamflow/internal/db"
)

// New opens a fresh in-memory sqlite database with foreign keys enforced,
// migrates the schema and seeds the reference rows.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err, "failed to create test database")

	// every connection to :memory: is its own database
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.Migrate(database), "failed to migrate test database")
	require.NoError(t, db.Seed(database), "failed to seed test database")

	return database
}
