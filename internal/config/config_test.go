package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/eztrackd/internal/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".eztracker.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoad_MissingFileUsesDefaults verifies defaults without a config file
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))

	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "eztracker_cli", cfg.CLIPath)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 2*time.Minute, cfg.Debounce)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval)
	assert.Equal(t, 10*time.Second, cfg.CLITimeout)
	assert.Equal(t, policy.DefaultIgnorePatterns, cfg.IgnorePatterns)
}

// TestLoad_ReadsSettingsSection verifies a full config file
func TestLoad_ReadsSettingsSection(t *testing.T) {
	path := writeConfig(t, `
[settings]
api_key = secret-key
server_url = https://track.example.com
debug = true
heartbeat_frequency = 5
send_buffer_seconds = 60
cli_timeout_seconds = 3
cli_path = /usr/local/bin/eztracker_cli
ignore_patterns = \.log$,^/tmp/
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "https://track.example.com", cfg.ServerURL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Minute, cfg.Debounce)
	assert.Equal(t, 60*time.Second, cfg.FlushInterval)
	assert.Equal(t, 3*time.Second, cfg.CLITimeout)
	assert.Equal(t, "/usr/local/bin/eztracker_cli", cfg.CLIPath)
	assert.Equal(t, []string{`\.log$`, `^/tmp/`}, cfg.IgnorePatterns)
}

// TestLoad_FractionalDebounce verifies sub-minute debounce intervals
func TestLoad_FractionalDebounce(t *testing.T) {
	path := writeConfig(t, `
[settings]
api_key = k
heartbeat_frequency = 0.5
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Debounce)
}

// TestLoad_APIKeyFromEnv verifies the environment fallback
func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))

	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

// TestLoad_FileKeyWinsOverEnv verifies precedence
func TestLoad_FileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("API_KEY", "env-key")
	path := writeConfig(t, `
[settings]
api_key = file-key
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.APIKey)
}
