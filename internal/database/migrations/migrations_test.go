package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "./migrations", opts.MigrationsDir)
	assert.True(t, opts.AutoMigrate)
}

func TestInitialize_MissingDirectory(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: t.TempDir() + "/nope"}, nil)

	err := r.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations directory does not exist")
}

func TestClose_WithoutMigrator(t *testing.T) {
	r := NewRunner(nil, DefaultOptions(), nil)
	assert.NoError(t, r.Close())
}
