package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"010_blockers.sql": {Data: []byte("SELECT 1")},
		"001_init.sql":     {Data: []byte("SELECT 1")},
		"002_indexes.sql":  {Data: []byte("SELECT 1")},
		"README.md":        {Data: []byte("notes")},
		"seed/003.sql":     {Data: []byte("SELECT 1")},
	}

	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_indexes.sql", "010_blockers.sql"}, files)
}
