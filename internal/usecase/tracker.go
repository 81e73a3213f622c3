package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// noticePrefix marks user-visible notices from this tracker.
const noticePrefix = "[eztrackd] "

// Tracker is the session-state object owning the activity clock, the
// heartbeat buffer and the dispatch scheduler as one unit. All inbound
// events and the periodic tick go through it.
//
// A mutex guards the triad: hosts may deliver events and ticks from
// different goroutines (the fsnotify watcher does), and each operation must
// see the three consistently.
type Tracker struct {
	mu sync.Mutex

	cfg         domain.TrackerConfig
	clock       *ActivityClock
	buffer      *HeartbeatBuffer
	scheduler   *DispatchScheduler
	policy      *HeartbeatPolicy
	transporter domain.Transporter
	notifier    domain.Notifier
	journal     domain.FlushJournal // optional, nil disables journaling
	sessionID   string
	initialized bool
	logger      *zap.Logger
}

// NewTracker creates a tracker session starting at start. The tracker comes
// up initialized iff the config carries an API key, matching the delivery
// tool's own requirement.
func NewTracker(
	cfg domain.TrackerConfig,
	ignore domain.IgnoreMatcher,
	transporter domain.Transporter,
	notifier domain.Notifier,
	sessionID string,
	start time.Time,
	logger *zap.Logger,
) *Tracker {
	clock := NewActivityClock()
	return &Tracker{
		cfg:         cfg,
		clock:       clock,
		buffer:      NewHeartbeatBuffer(),
		scheduler:   NewDispatchScheduler(cfg.FlushInterval, start),
		policy:      NewHeartbeatPolicy(clock, ignore, cfg.Debounce),
		transporter: transporter,
		notifier:    notifier,
		journal:     nil, // Set via NewTrackerWithJournal
		sessionID:   sessionID,
		initialized: cfg.APIKey != "",
		logger:      logger,
	}
}

// NewTrackerWithJournal creates a tracker that records flush outcomes to j.
func NewTrackerWithJournal(
	cfg domain.TrackerConfig,
	ignore domain.IgnoreMatcher,
	transporter domain.Transporter,
	notifier domain.Notifier,
	j domain.FlushJournal,
	sessionID string,
	start time.Time,
	logger *zap.Logger,
) *Tracker {
	t := NewTracker(cfg, ignore, transporter, notifier, sessionID, start, logger)
	t.journal = j
	return t
}

// Initialized reports whether the tracker is emitting heartbeats.
func (t *Tracker) Initialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized
}

// Initialize re-arms the tracker after a credential failure.
func (t *Tracker) Initialize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initialized = true
}

// OnOpen handles a file being opened in the host.
func (t *Tracker) OnOpen(entity, language string, at time.Time) {
	t.observe(entity, language, at, false)
}

// OnActivate handles a file gaining focus in the host.
func (t *Tracker) OnActivate(entity, language string, at time.Time) {
	t.observe(entity, language, at, false)
}

// OnSave handles a file being written to disk.
func (t *Tracker) OnSave(entity, language string, at time.Time) {
	t.observe(entity, language, at, true)
}

// OnModify handles a passive edit: the file's liveness timestamp moves but
// the debounce window is not reset and no heartbeat is produced.
func (t *Tracker) OnModify(entity string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return
	}
	t.policy.RecordActivity(entity, at)
}

func (t *Tracker) observe(entity, language string, at time.Time, isWrite bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return
	}

	hb, ok := t.policy.Observe(entity, at, isWrite, language)
	if !ok {
		t.logger.Debug("event not heartbeat-worthy",
			zap.String("entity", entity),
			zap.Bool("is_write", isWrite))
		return
	}

	t.buffer.Append(hb)
	t.logger.Debug("heartbeat buffered",
		zap.String("entity", hb.Entity),
		zap.Bool("is_write", hb.IsWrite),
		zap.Float64("duration", hb.Duration))
}

// Tick runs the scheduler: when the flush interval has elapsed and the
// buffer holds heartbeats, one flush cycle runs. The interval timer resets
// either way so an empty buffer does not re-trigger immediately.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.scheduler.Due(now) {
		return
	}
	if t.buffer.Len() > 0 {
		t.flushLocked(ctx, now)
	}
	t.scheduler.MarkFlushed(now)
}

// Flush drains and transmits the buffer immediately, bypassing the interval
// check. Used by the one-shot send command and by shutdown.
func (t *Tracker) Flush(ctx context.Context, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushLocked(ctx, now)
	t.scheduler.MarkFlushed(now)
}

// LastFlushAt returns the scheduler's timer for status reporting.
func (t *Tracker) LastFlushAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduler.LastFlushAt()
}

// BufferedCount returns the number of heartbeats awaiting flush.
func (t *Tracker) BufferedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer.Len()
}

// TrackedFiles returns the number of files the clock has seen.
func (t *Tracker) TrackedFiles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock.Len()
}

func (t *Tracker) flushLocked(ctx context.Context, now time.Time) {
	batch := t.buffer.DrainAll()
	if len(batch) == 0 {
		return
	}

	outcome := t.transporter.Send(ctx, batch)
	t.reactLocked(outcome)

	if t.journal != nil {
		rec := domain.FlushRecord{
			SessionID: t.sessionID,
			At:        now,
			BatchSize: outcome.BatchSize,
			Outcome:   string(outcome.Class),
			Detail:    outcome.Detail,
		}
		if err := t.journal.Record(rec); err != nil {
			t.logger.Warn("failed to journal flush outcome", zap.Error(err))
		}
	}
}

// reactLocked applies the per-class actions: notices, de-initialization,
// debug output. No class triggers a retry; the batch is already gone.
func (t *Tracker) reactLocked(outcome domain.FlushOutcome) {
	switch outcome.Class {
	case domain.OutcomeAPIKeyError:
		t.notifier.Notify(noticePrefix + "Invalid API key. Update it in ~/.eztracker.cfg")
		t.initialized = false
		t.logger.Warn("delivery tool rejected API key, tracking suspended")

	case domain.OutcomeConfigParseError:
		t.notifier.Notify(fmt.Sprintf("%sdelivery tool error (code %d): %s",
			noticePrefix, outcome.ExitCode, outcome.Stderr))

	case domain.OutcomeSent:
		if t.cfg.Debug {
			t.logger.Debug("delivery tool output",
				zap.Int("exit_code", outcome.ExitCode),
				zap.String("stdout", outcome.Stdout))
		}

	case domain.OutcomeToolMissing:
		// Degraded mode: telemetry loss is acceptable, interrupting the
		// host is not.
		t.logger.Debug("delivery tool not resolvable, batch dropped",
			zap.String("cli_path", t.cfg.CLIPath),
			zap.Int("batch_size", outcome.BatchSize))

	case domain.OutcomeZeroDuration:
		t.logger.Debug("primary heartbeat has zero duration, batch skipped",
			zap.Int("batch_size", outcome.BatchSize))

	case domain.OutcomeStartError:
		t.notifier.Notify(noticePrefix + "delivery tool not found: " + t.cfg.CLIPath)

	case domain.OutcomeTimeout:
		t.notifier.Notify(noticePrefix + "delivery tool timed out: " + outcome.Detail)

	default:
		t.notifier.Notify(noticePrefix + "error running delivery tool: " + outcome.Detail)
	}
}
