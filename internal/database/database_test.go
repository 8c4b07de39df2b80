package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesAndMigrates(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM rounds").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestOpenRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("not a sqlite database"), 0o644))

	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM rounds").Scan(&count))
	assert.Equal(t, 0, count)
}
