package usecase

import "github.com/eliteGoblin/eztrackd/internal/domain"

// HeartbeatBuffer accumulates emitted heartbeats in arrival order until the
// next flush drains them.
//
// Not safe for concurrent use; the Tracker serializes access.
type HeartbeatBuffer struct {
	items []domain.Heartbeat
}

// NewHeartbeatBuffer creates an empty buffer.
func NewHeartbeatBuffer() *HeartbeatBuffer {
	return &HeartbeatBuffer{}
}

// Append adds hb at the end of the buffer.
func (b *HeartbeatBuffer) Append(hb domain.Heartbeat) {
	b.items = append(b.items, hb)
}

// DrainAll empties the buffer and returns its prior contents in order.
// An empty result is a normal, frequent outcome.
func (b *HeartbeatBuffer) DrainAll() []domain.Heartbeat {
	drained := b.items
	b.items = nil
	return drained
}

// Len returns the number of buffered heartbeats.
func (b *HeartbeatBuffer) Len() int {
	return len(b.items)
}
