package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:hybrid?mode=memory&cache=shared", cfg.Database.DSN)
	assert.Equal(t, "silent", cfg.Database.LogLevel)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "hybrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: host=localhost dbname=hybrid
log:
  level: DEBUG
`), 0o600))

	t.Setenv("HYBRID_LOG_FORMAT", "json")
	t.Setenv("HYBRID_DATABASE_LOGLEVEL", "info")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost dbname=hybrid", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Database.LogLevel)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hybrid")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/hybrid", cfg.Database.DSN)

	t.Setenv("HYBRID_DATABASE_DSN", "file:explicit.db")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "file:explicit.db", cfg.Database.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
