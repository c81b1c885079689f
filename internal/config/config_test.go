package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndChannels(t *testing.T) {
	path := writeConfig(t, `
api:
  key: test-key
channels:
  - slug: acme
    name: Acme Show
    external_id: UC123
  - slug: other
    name: Other Show
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "data", cfg.Store.File.Dir)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, "info", cfg.LogLevel)

	require.Len(t, cfg.Channels, 2)
	assert.Equal(t, "acme", cfg.Channels[0].Slug)
	assert.Equal(t, "UC123", cfg.Channels[0].ExternalID)
	assert.Equal(t, "", cfg.Channels[1].ExternalID, "external id may be absent")
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-from-env")

	path := writeConfig(t, `
api:
  key: ${TEST_API_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.API.Key)
}

func TestLoad_MissingAPIKeyFatal(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: file
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_PostgresBackendRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `
api:
  key: test-key
store:
  backend: postgres
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres backend requires")
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := writeConfig(t, `
api:
  key: test-key
store:
  backend: dynamodb
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDatabaseConfig_URLs(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "sync",
		Password: "pw",
		DBName:   "media",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=sync password=pw dbname=media sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://sync:pw@localhost:5432/media?sslmode=disable", db.URL())
}
