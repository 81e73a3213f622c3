// Package usecase contains application business logic.
package usecase

import (
	"time"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// ActivityClock tracks, per file, when activity was last observed and when a
// heartbeat was last emitted. Entries are never evicted; one editing session
// touches a bounded set of files in practice.
//
// Not safe for concurrent use; the Tracker serializes access.
type ActivityClock struct {
	files map[string]domain.FileActivity
}

// NewActivityClock creates an empty clock.
func NewActivityClock() *ActivityClock {
	return &ActivityClock{
		files: make(map[string]domain.FileActivity),
	}
}

// Get returns the activity record for entity and whether the entity has been
// seen before. An unseen entity yields zero timestamps.
func (c *ActivityClock) Get(entity string) (domain.FileActivity, bool) {
	fa, ok := c.files[entity]
	return fa, ok
}

// RecordHeartbeat marks a heartbeat emission: both timestamps move to at.
func (c *ActivityClock) RecordHeartbeat(entity string, at time.Time) {
	c.files[entity] = domain.FileActivity{
		LastActivityAt:  at,
		LastHeartbeatAt: at,
	}
}

// RecordActivity marks passive activity without resetting the heartbeat
// timer. Used for edit events that are not heartbeat-worthy.
func (c *ActivityClock) RecordActivity(entity string, at time.Time) {
	fa := c.files[entity]
	fa.LastActivityAt = at
	c.files[entity] = fa
}

// Len returns the number of tracked files.
func (c *ActivityClock) Len() int {
	return len(c.files)
}
