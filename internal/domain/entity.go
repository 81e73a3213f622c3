// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"strings"
	"time"
)

// Delivery tool exit codes. These are a contract with the eztracker CLI,
// not internal policy.
const (
	ExitCodeConfigParseError = 103
	ExitCodeAPIKeyError      = 104
)

// PluginName identifies this tracker on the wire, sent as "<name>/<version>".
const PluginName = "eztrackd"

// sentinelLanguage is the one language sent under the primary field name.
// Every other language goes under the alternate field. The asymmetry is a
// delivery-tool contract and must be preserved exactly.
const sentinelLanguage = "forth"

// LanguageFlag returns the CLI flag used to carry lang on the primary
// heartbeat: "--language" for the sentinel language, "--alternate-language"
// for everything else.
func LanguageFlag(lang string) string {
	if strings.EqualFold(lang, sentinelLanguage) {
		return "--language"
	}
	return "--alternate-language"
}

// LanguageKey returns the JSON key used to carry lang on extra heartbeats,
// mirroring LanguageFlag.
func LanguageKey(lang string) string {
	if strings.EqualFold(lang, sentinelLanguage) {
		return "language"
	}
	return "alternate_language"
}

// Heartbeat is one emitted activity event. Immutable once created.
type Heartbeat struct {
	Entity   string    // file identifier, never empty
	Time     time.Time // event time
	IsWrite  bool
	Duration float64 // seconds since the previous heartbeat for Entity, 0 for the first
	Language string  // possibly empty
}

// FileActivity tracks when a file was last touched and last heartbeat-recorded.
// Zero values mean "never seen".
type FileActivity struct {
	LastActivityAt  time.Time
	LastHeartbeatAt time.Time
}

// TrackerConfig is the read-only session configuration.
type TrackerConfig struct {
	APIKey         string
	ServerURL      string
	CLIPath        string        // delivery tool path or bare command name
	Debug          bool
	Debounce       time.Duration // minimum gap between non-write heartbeats per file
	FlushInterval  time.Duration // how often the buffer is flushed
	CLITimeout     time.Duration // upper bound on one delivery tool invocation
	IgnorePatterns []string      // regexes matched against file identifiers
	WatchDirs      []string      // roots watched in daemon mode
}

// OutcomeClass classifies the result of one flush attempt.
type OutcomeClass string

const (
	// OutcomeSent means the delivery tool ran and exited with a code we
	// treat as normal completion (anything but the recognized error codes).
	OutcomeSent OutcomeClass = "sent"
	// OutcomeToolMissing means the tool could not be resolved before
	// invocation. Degraded mode: the batch is dropped silently.
	OutcomeToolMissing OutcomeClass = "tool_missing"
	// OutcomeZeroDuration means the primary heartbeat had zero duration and
	// the whole batch was skipped without a network call.
	OutcomeZeroDuration OutcomeClass = "zero_duration"
	// OutcomeAPIKeyError means the tool rejected the stored credential.
	OutcomeAPIKeyError OutcomeClass = "api_key_error"
	// OutcomeConfigParseError means the tool rejected its own config.
	OutcomeConfigParseError OutcomeClass = "config_parse_error"
	// OutcomeStartError means the tool vanished between the resolve check
	// and invocation.
	OutcomeStartError OutcomeClass = "start_error"
	// OutcomeTimeout means the invocation exceeded CLITimeout.
	OutcomeTimeout OutcomeClass = "timeout"
	// OutcomeFault is any other invocation-time failure.
	OutcomeFault OutcomeClass = "fault"
)

// FlushOutcome is the classified result of one flush attempt.
type FlushOutcome struct {
	Class     OutcomeClass
	BatchSize int
	ExitCode  int
	Stdout    string
	Stderr    string
	Detail    string // human-readable fault description, empty unless faulted
}

// Session describes one running tracker, persisted to the session registry
// for discovery by the status command.
type Session struct {
	PID         int       `json:"pid"`
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	LastFlushAt time.Time `json:"last_flush_at"`
	AppVersion  string    `json:"app_version,omitempty"`
}

// FlushRecord is one journal row describing a past flush attempt.
type FlushRecord struct {
	ID        int64     `db:"id"`
	SessionID string    `db:"session_id"`
	At        time.Time `db:"at"`
	BatchSize int       `db:"batch_size"`
	Outcome   string    `db:"outcome"`
	Detail    string    `db:"detail"`
}
