package usecase

import "time"

// DispatchScheduler decides when the buffer is due for a flush. The timer is
// reset after every flush attempt regardless of outcome, so a persistently
// unavailable delivery tool cannot cause retry storms.
type DispatchScheduler struct {
	interval    time.Duration
	lastFlushAt time.Time
}

// NewDispatchScheduler creates a scheduler with lastFlushAt set to start.
func NewDispatchScheduler(interval time.Duration, start time.Time) *DispatchScheduler {
	return &DispatchScheduler{
		interval:    interval,
		lastFlushAt: start,
	}
}

// Due reports whether the flush interval has elapsed.
func (s *DispatchScheduler) Due(now time.Time) bool {
	return now.Sub(s.lastFlushAt) > s.interval
}

// MarkFlushed resets the timer to now.
func (s *DispatchScheduler) MarkFlushed(now time.Time) {
	s.lastFlushAt = now
}

// LastFlushAt returns the time of the last flush attempt (or session start).
func (s *DispatchScheduler) LastFlushAt() time.Time {
	return s.lastFlushAt
}
