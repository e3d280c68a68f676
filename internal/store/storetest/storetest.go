// Package storetest opens throwaway migrated databases for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"medeasy/pharmacy/internal/database"
	"medeasy/pharmacy/internal/migrations"
	"medeasy/pharmacy/internal/store"
)

// OpenDB returns a migrated SQLite database living in t's temp dir, plus its path.
func OpenDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pharmacy.db")
	db, err := database.Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db))
	return db, path
}

// Open returns a Store over a fresh database.
func Open(t *testing.T) *store.Store {
	t.Helper()
	db, _ := OpenDB(t)
	return store.New(db)
}
