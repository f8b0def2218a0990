package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadMergesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  user: pm
  password: ${DB_SECRET}
  name: pmboard
jwt:
  secret: base-secret
server:
  port: ":8080"
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
  port: 5432
  user: pm
  password: ${DB_SECRET}
  name: pmboard
outbox:
  batch_size: 10
`)
	writeFile(t, dir, "secrets.env", "# local secrets\nDB_SECRET=\"s3cret\"\n")

	cfg, err := Load("staging", dir)
	require.NoError(t, err)

	assert.Equal(t, "db.staging", cfg.DB.Host)
	assert.Equal(t, "s3cret", cfg.DB.Password)
	assert.Equal(t, "base-secret", cfg.JWT.Secret)
	assert.Equal(t, 10, cfg.Outbox.BatchSize)
	assert.Equal(t, 5, cfg.Outbox.MaxRetries)
	assert.Equal(t, time.Second, cfg.Outbox.Interval)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoadSystemEnvWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: localhost\n  port: 5432\njwt:\n  secret: file\n")

	t.Setenv("DB_HOST", "db.prod")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "db.prod", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoadMissingBase(t *testing.T) {
	_, err := Load("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "databse:\n  host: typo\n")

	_, err := Load("", dir)
	assert.Error(t, err)
}
