// Package sqlitetest opens migrated in-memory stores for tests of the layers
// above persistence.
package sqlitetest

import (
	"testing"

	"github.com/erp/fincore/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory database with every table migrated. The
// handle is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := persistence.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	return db
}
