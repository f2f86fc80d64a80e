package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default()
	cfg.Policy.StrictReferences = true
	cfg.Record.Cron = "30 5 * * 1"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_LoadDefaultsDatabasePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  strict_references: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Policy.StrictReferences)
	assert.Equal(t, "tally.db", cfg.Database.Path)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_DatabasePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/data", "tally.db"), cfg.DatabasePath("/data"))

	cfg.Database.Path = "/var/lib/tally.db"
	assert.Equal(t, "/var/lib/tally.db", cfg.DatabasePath("/data"))
}
