package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	// Nested path checks that Init creates the data directory
	conn, err := Init(context.Background(), "sqlite", filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })

	require.NoError(t, RunMigrations(conn.DB, "sqlite"))
	version, err := MigrationVersion(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var tables int
	require.NoError(t, conn.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'files')`))
	assert.Equal(t, 2, tables)

	require.NoError(t, MigrateDown(conn.DB, "sqlite"))
	version, err = MigrationVersion(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Applying again is a no-op past the current version
	require.NoError(t, RunMigrations(conn.DB, "sqlite"))
	require.NoError(t, RunMigrations(conn.DB, "sqlite"))
	version, err = MigrationVersion(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "mysql", getDialect("mysql"))
}
