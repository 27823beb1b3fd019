package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_create_boxes.up.sql":   {Data: []byte("CREATE TABLE boxes (id TEXT PRIMARY KEY);")},
		"20260101_000000_create_boxes.down.sql": {Data: []byte("DROP TABLE boxes;")},
		"20260102_000000_add_notes.up.sql":      {Data: []byte("CREATE TABLE notes (id INTEGER); CREATE INDEX idx_notes ON notes(id);")},
		"README.md":                             {Data: []byte("not a migration")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n))
	return n == 1
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Migrate(ctx, testMigrations()))
	assert.True(t, tableExists(t, db, "boxes"))
	assert.True(t, tableExists(t, db, "notes"))

	applied, pending, err := db.MigrationStatus(ctx, testMigrations())
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "20260101_000000", applied[0].Version)
	assert.False(t, applied[0].AppliedAt.IsZero())
	assert.Empty(t, pending)

	require.NoError(t, db.Migrate(ctx, testMigrations()), "second run is a no-op")
}

func TestMigrate_FailureStopsAtFailingMigration(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	fsys := testMigrations()
	fsys["20260102_000000_add_notes.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE broken (")}

	err := db.Migrate(ctx, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20260102_000000")

	assert.True(t, tableExists(t, db, "boxes"))
	applied, pending, err := db.MigrationStatus(ctx, fsys)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.Len(t, pending, 1)
}

func TestMigrateDown(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	fsys := fstest.MapFS{
		"20260101_000000_create_boxes.up.sql":   {Data: []byte("CREATE TABLE boxes (id TEXT PRIMARY KEY);")},
		"20260101_000000_create_boxes.down.sql": {Data: []byte("DROP TABLE boxes;")},
	}
	require.NoError(t, db.Migrate(ctx, fsys))
	require.NoError(t, db.MigrateDown(ctx, fsys))

	assert.False(t, tableExists(t, db, "boxes"))
	applied, _, err := db.MigrationStatus(ctx, fsys)
	require.NoError(t, err)
	assert.Empty(t, applied)

	require.NoError(t, db.MigrateDown(ctx, fsys), "nothing left to roll back")
}

func TestMigrateDown_WithoutDownSQL(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Migrate(ctx, testMigrations()))
	err := db.MigrateDown(ctx, testMigrations())
	assert.ErrorContains(t, err, "no down SQL")
}

func TestMigrate_NilFS(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Migrate(context.Background(), nil))
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name    string
		version string
		up      bool
		ok      bool
	}{
		{"20260101_120000_message_journal.up.sql", "20260101_120000", true, true},
		{"20260101_120000_message_journal.down.sql", "20260101_120000", false, true},
		{"20260101_120000.up.sql", "20260101_120000", true, true},
		{"20260101_120000_x.sql", "", false, false},
		{"20260101.up.sql", "", false, false},
		{"embed.go", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, up, ok := parseMigrationFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.up, up)
		})
	}
}

func TestMigrationName(t *testing.T) {
	assert.Equal(t, "message_journal", migrationName("20260101_120000_message_journal.up.sql"))
	assert.Equal(t, "20260101_120000", migrationName("20260101_120000.down.sql"))
}
