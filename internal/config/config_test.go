package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wats-sdk/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server_url: https://wats.example.com
timeout_ms: 2500
max_workers: 2
mode: import
submit_rule: Result == "F"
station:
  name: ICT-01
  location: Line 3
  purpose: Production
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://wats.example.com", cfg.ServerURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, 2, cfg.MaxWorkers)
	assert.Equal(t, `Result == "F"`, cfg.SubmitRule)
	assert.Equal(t, "ICT-01", cfg.Station.Name)
	assert.Equal(t, "wats-queue.wal", cfg.QueuePath)

	mode, err := cfg.BuildMode()
	require.NoError(t, err)
	assert.Equal(t, types.ModeImport, mode)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server_url: https://file.example.com\n")
	t.Setenv("WATS_SERVER_URL", "https://env.example.com")
	t.Setenv("WATS_STATION_NAME", "EOL-02")
	t.Setenv("WATS_TOKEN", "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.ServerURL)
	assert.Equal(t, "EOL-02", cfg.Station.Name)
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "mode: replay\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "max_workers: 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "retry_interval_ms: -1\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxWorkers)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.RetryInterval())
}
