package usecase

import (
	"time"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// HeartbeatPolicy decides whether an activity event becomes a heartbeat.
// A non-write event within the debounce window of the file's last heartbeat
// produces nothing; writes and first-ever events always emit.
type HeartbeatPolicy struct {
	clock    *ActivityClock
	ignore   domain.IgnoreMatcher
	debounce time.Duration
}

// NewHeartbeatPolicy creates a policy over the given clock.
func NewHeartbeatPolicy(clock *ActivityClock, ignore domain.IgnoreMatcher, debounce time.Duration) *HeartbeatPolicy {
	return &HeartbeatPolicy{
		clock:    clock,
		ignore:   ignore,
		debounce: debounce,
	}
}

// Observe evaluates one activity event. When the event qualifies it returns
// the emitted heartbeat and true, after recording the emission on the clock.
// Ignored and debounced events return false without touching the clock;
// callers wanting passive liveness tracking use RecordActivity instead.
func (p *HeartbeatPolicy) Observe(entity string, at time.Time, isWrite bool, language string) (domain.Heartbeat, bool) {
	if p.ignore.Ignored(entity) {
		return domain.Heartbeat{}, false
	}

	fa, seen := p.clock.Get(entity)
	elapsed := at.Sub(fa.LastHeartbeatAt)

	if !isWrite && seen && elapsed <= p.debounce {
		return domain.Heartbeat{}, false
	}

	duration := 0.0
	if seen {
		duration = elapsed.Seconds()
		if duration < 0 {
			duration = 0
		}
	}

	hb := domain.Heartbeat{
		Entity:   entity,
		Time:     at,
		IsWrite:  isWrite,
		Duration: duration,
		Language: language,
	}
	p.clock.RecordHeartbeat(entity, at)
	return hb, true
}

// RecordActivity notes that entity was edited without emitting a heartbeat.
// The debounce window is left intact so the next qualifying event still
// carries the full elapsed duration.
func (p *HeartbeatPolicy) RecordActivity(entity string, at time.Time) {
	if p.ignore.Ignored(entity) {
		return
	}
	p.clock.RecordActivity(entity, at)
}
