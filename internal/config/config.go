// Package config loads the tracker configuration from ~/.eztracker.cfg.
// The file is INI-shaped with a [settings] section and is shared with the
// delivery tool, which parses it independently for its own keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eliteGoblin/eztrackd/internal/domain"
	"github.com/eliteGoblin/eztrackd/internal/policy"
)

const configFileName = ".eztracker.cfg"

// Defaults applied when the config file or individual keys are absent.
const (
	defaultServerURL       = "http://localhost:8080"
	defaultCLIPath         = "eztracker_cli"
	defaultDebounceMinutes = 2.0
	defaultFlushSeconds    = 30
	defaultCLITimeoutSecs  = 10
)

// DefaultPath returns the config file location in the user's home dir.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home dir: %w", err)
	}
	return filepath.Join(home, configFileName), nil
}

// Load reads the configuration at path. A missing file is not an error: the
// defaults apply and the tracker comes up uninitialized until an API key
// appears (via the file or the API_KEY environment variable).
func Load(path string) (domain.TrackerConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("settings.server_url", defaultServerURL)
	v.SetDefault("settings.cli_path", defaultCLIPath)
	v.SetDefault("settings.debug", false)
	v.SetDefault("settings.heartbeat_frequency", defaultDebounceMinutes)
	v.SetDefault("settings.send_buffer_seconds", defaultFlushSeconds)
	v.SetDefault("settings.cli_timeout_seconds", defaultCLITimeoutSecs)
	v.SetDefault("settings.ignore_patterns", strings.Join(policy.DefaultIgnorePatterns, ","))

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return domain.TrackerConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	apiKey := v.GetString("settings.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	cfg := domain.TrackerConfig{
		APIKey:         apiKey,
		ServerURL:      v.GetString("settings.server_url"),
		CLIPath:        v.GetString("settings.cli_path"),
		Debug:          v.GetBool("settings.debug"),
		Debounce:       minutesToDuration(v.GetFloat64("settings.heartbeat_frequency")),
		FlushInterval:  time.Duration(v.GetInt("settings.send_buffer_seconds")) * time.Second,
		CLITimeout:     time.Duration(v.GetInt("settings.cli_timeout_seconds")) * time.Second,
		IgnorePatterns: splitPatterns(v.GetString("settings.ignore_patterns")),
	}
	return cfg, nil
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

// splitPatterns parses the comma-separated ignore_patterns value.
func splitPatterns(raw string) []string {
	parts := strings.Split(raw, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
