package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err) // explicit file must exist

	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://fcm.googleapis.com/fcm/send", cfg.Push.FCM.Endpoint)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Contains(t, cfg.Storage.Path, "sentry.db")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/sentry-test.db
push:
  webhook:
    enabled: true
    url: https://hooks.example.com/notify
    secret: s3cret
engine:
  workers: 2
retention:
  days: 14
logging:
  level: debug
  format: text
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sentry-test.db", cfg.Storage.Path)
	assert.True(t, cfg.Push.Webhook.Enabled)
	assert.Equal(t, "https://hooks.example.com/notify", cfg.Push.Webhook.URL)
	assert.Equal(t, "s3cret", cfg.Push.Webhook.Secret)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 14, cfg.Retention.Days)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SENTRY_LOGGING_LEVEL", "warn")
	t.Setenv("SENTRY_RETENTION_DAYS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Retention.Days)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
