package db

import (
	"testing"
	"testing/fstest"

	"github.com/2beens/liftlog/internal/db/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	loaded, err := loadMigrations(migrations.Files)
	require.NoError(t, err)
	require.NotEmpty(t, loaded)
	assert.Equal(t, "0001", loaded[0].Version)
	assert.Contains(t, loaded[0].SQL, "exercise_log")
	assert.Contains(t, loaded[0].SQL, "account")
}

func TestLoadMigrations_Ordering(t *testing.T) {
	files := fstest.MapFS{
		"0010_add_index.sql":  {Data: []byte("CREATE INDEX a ON b (c);")},
		"0002_second.sql":     {Data: []byte("SELECT 2;")},
		"0001_first.sql":      {Data: []byte("SELECT 1;")},
		"README.md":           {Data: []byte("not a migration")},
		"notes/0003_skip.sql": {Data: []byte("SELECT 3;")},
	}

	loaded, err := loadMigrations(files)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "0001_first.sql", loaded[0].Name)
	assert.Equal(t, "0002_second.sql", loaded[1].Name)
	assert.Equal(t, "0010_add_index.sql", loaded[2].Name)
	assert.Equal(t, 10, loaded[2].Order)
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"0001_first.sql": {Data: []byte("SELECT 1;")},
		"0001_again.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := loadMigrations(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 0001")
}

func TestSplitSQLStatements(t *testing.T) {
	statements := splitSQLStatements(`
		CREATE TABLE a (id INT);

		CREATE INDEX ix_a ON a (id);
		;
	`)
	assert.Equal(t, []string{
		"CREATE TABLE a (id INT)",
		"CREATE INDEX ix_a ON a (id)",
	}, statements)
	assert.Empty(t, splitSQLStatements(" ; ;\n"))
}

func TestOpenSQLite(t *testing.T) {
	dbPath := t.TempDir() + "/nested/dir/liftlog.db"
	database, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Exec("CREATE TABLE ping (id INTEGER PRIMARY KEY)").Error)
	require.NoError(t, CloseSQLite(database))
}
