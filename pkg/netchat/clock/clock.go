// Package clock implements the node's live vector clock: a mapping from
// node id to date that the reactor mutates under strict send/receive
// rules. It is kept separate from package types, which only holds the
// immutable wire representation of a clock snapshot.
package clock

import (
	"sync"

	"github.com/ehariz/netchat/pkg/netchat/types"
)

// VectorClock is owned by the reactor, which is the single mutator, so no
// internal locking is required there. The mutex here only guards the rare
// case of a caller that observes the clock from outside the reactor
// goroutine; the UI's GetClock is answered by the reactor itself.
type VectorClock struct {
	mutex sync.RWMutex
	self  types.NodeId
	dates types.Clock
}

// New returns a vector clock for self with its own entry initialized to 0.
func New(self types.NodeId) *VectorClock {
	return &VectorClock{
		self:  self,
		dates: types.Clock{self: 0},
	}
}

// Get returns the stored date for id, or 0 if absent.
func (c *VectorClock) Get(id types.NodeId) types.Date {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.dates.Get(id)
}

// Self returns the node's own current date.
func (c *VectorClock) Self() types.Date {
	return c.Get(c.self)
}

// IncrementSelf sets the local entry to local+1 and returns the new value.
// Called on every local send and on every first-time receive.
func (c *VectorClock) IncrementSelf() types.Date {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	next := c.dates[c.self] + 1
	c.dates[c.self] = next
	return next
}

// Merge folds other into the local clock pointwise: for each (id, d) in
// other, the local entry becomes max(local_or_0, d).
func (c *VectorClock) Merge(other types.Clock) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for id, date := range other {
		if date > c.dates[id] {
			c.dates[id] = date
		}
	}
}

// Snapshot returns an immutable copy of the current clock, suitable for
// embedding in an outgoing Msg or a DisplayClock UI event.
func (c *VectorClock) Snapshot() types.Clock {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.dates.Clone()
}

// Ids returns every node id currently tracked by the clock, used by the
// snapshot collector to decide when every known peer has responded.
func (c *VectorClock) Ids() []types.NodeId {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	ids := make([]types.NodeId, 0, len(c.dates))
	for id := range c.dates {
		ids = append(ids, id)
	}
	return ids
}
