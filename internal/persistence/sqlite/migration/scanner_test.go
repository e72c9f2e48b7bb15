package migration

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerScan(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"sql/002_add_index.sql":      {Data: []byte("CREATE INDEX idx_things_name ON things(name);")},
		"sql/001_initial_schema.sql": {Data: []byte("-- Description: Things table\nCREATE TABLE things (id TEXT PRIMARY KEY, name TEXT);")},
		"sql/README.md":              {Data: []byte("ignored")},
	}

	migrations, err := NewScanner(files, "sql").Scan()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "Things table", migrations[0].Description)
	assert.Equal(t, "sql/001_initial_schema.sql", migrations[0].FilePath)
	assert.Len(t, migrations[0].Checksum, 64)

	assert.Equal(t, "002", migrations[1].Version)
	assert.Equal(t, "add index", migrations[1].Description)
}

func TestScannerRejectsBadFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files fstest.MapFS
		want  error
	}{
		{
			name:  "bad name",
			files: fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}},
			want:  ErrInvalidMigrationFile,
		},
		{
			name:  "comments only",
			files: fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing here\n")}},
			want:  ErrInvalidMigrationFile,
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"001_a.sql": {Data: []byte("SELECT 1;")},
				"001_b.sql": {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewScanner(tt.files, ".").Scan()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := "-- header\nCREATE TABLE a (id TEXT);\n\n-- second\nCREATE TABLE b (id TEXT);\n"
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE TABLE b (id TEXT)"}, splitStatements(sql))
	assert.Empty(t, splitStatements("-- only a comment\n;"))
}
