package client_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/travellog/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := client.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://story-api.dicoding.dev/v1", cfg.Endpoint)
	assert.Equal(t, "travellog.db", cfg.DatabaseFile())
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 15*time.Second, cfg.PushTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncDebounce)
	assert.Equal(t, cfg.Endpoint, cfg.Probe.URL)
	assert.Equal(t, "travellog-v1.4.0", cfg.Cache.ShellVersion)
	assert.Equal(t, "travellog-api-v1", cfg.Cache.APIVersion)
	assert.Equal(t, "/v1/", cfg.Cache.APIPrefix)
	assert.Equal(t, "https://story-api.dicoding.dev/", cfg.Cache.ShellOrigin)
	assert.Contains(t, cfg.Cache.ShellAssets, "./index.html")
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "travellog.yml")
	err := os.WriteFile(filename, []byte(`
endpoint: http://localhost:3000/v1/
database_path: /var/lib/travellog
push_timeout: 5s
probe:
  interval: 1m
cache:
  shell_origin: http://localhost:8000/
  shell_assets:
    - ./
    - ./index.html
log:
  level: debug
`), 0600)
	require.NoError(t, err)

	t.Setenv("TRAVELLOG_SUBMIT_TIMEOUT", "30s")
	t.Setenv("TRAVELLOG_PROBE__URL", "http://localhost:3000/health")

	cfg, err := client.LoadConfig(filename)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/v1", cfg.Endpoint)
	assert.Equal(t, "/var/lib/travellog/travellog.db", cfg.DatabaseFile())
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 5*time.Second, cfg.PushTimeout)
	assert.Equal(t, time.Minute, cfg.Probe.Interval)
	assert.Equal(t, "http://localhost:3000/health", cfg.Probe.URL)
	assert.Equal(t, "http://localhost:8000/", cfg.Cache.ShellOrigin)
	assert.Equal(t, []string{"./", "./index.html"}, cfg.Cache.ShellAssets)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := client.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
