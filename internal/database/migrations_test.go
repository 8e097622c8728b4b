package database

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.up.sql":      {Data: []byte("SELECT 1")},
		"001_poll_history.up.sql":   {Data: []byte("SELECT 1")},
		"001_poll_history.down.sql": {Data: []byte("SELECT 1")},
		"README.md":                 {Data: []byte("notes")},
	}

	files, err := MigrationVersions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_poll_history.up.sql", "002_add_index.up.sql"}, files)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	require.NoError(t, err)

	files, err := MigrationVersions(sub)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := fs.ReadFile(sub, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS poll_history")
}

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'poll_history'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "poll_history", name)

	// Creating the schema again is harmless.
	_, err = db.ExecContext(ctx, sqliteSchema)
	assert.NoError(t, err)
}
