package domain

import (
	"context"
	"time"
)

// Transporter sends one batch of heartbeats to the delivery tool and
// classifies the result. It never returns an error: every failure mode maps
// to an OutcomeClass and the batch is never requeued.
type Transporter interface {
	// Send transmits batch (first element is the primary heartbeat).
	// An empty batch is the caller's problem; Send assumes len(batch) > 0.
	Send(ctx context.Context, batch []Heartbeat) FlushOutcome
}

// ToolRunner abstracts the delivery tool subprocess for testing.
type ToolRunner interface {
	// Run executes the tool synchronously and returns its exit code and
	// captured output. A non-nil error means the tool never ran to
	// completion (missing binary, timeout, start fault); exitCode is
	// meaningless in that case.
	Run(ctx context.Context, path string, args []string) (RunResult, error)
}

// RunResult captures one completed tool invocation.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Notifier surfaces user-visible notices. The tracker never renders UI
// itself; hosts plug in whatever surface they have.
type Notifier interface {
	Notify(message string)
}

// IgnoreMatcher decides whether a file identifier is excluded from tracking.
type IgnoreMatcher interface {
	Ignored(entity string) bool
}

// SessionRegistry persists the running session for discovery by the status
// command.
type SessionRegistry interface {
	// Register saves the current session.
	Register(s Session) error

	// Get returns the registered session, or nil if none.
	Get() (*Session, error)

	// UpdateFlush records the time of the most recent flush attempt.
	UpdateFlush(at time.Time) error

	// IsAlive checks whether the registered session's process is running.
	IsAlive(pid int) bool

	// Clear removes the registry file.
	Clear() error
}

// FlushJournal records flush outcomes for the stats command. It stores
// outcomes only, never heartbeats: lost batches stay lost.
type FlushJournal interface {
	Record(rec FlushRecord) error
	Recent(limit int) ([]FlushRecord, error)
	Close() error
}
