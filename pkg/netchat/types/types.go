// Package types holds the wire-level data model shared by every NetChat
// component: node identifiers, the vector-clock date type, message
// identifiers and the message envelope itself.
package types

// NodeId is an opaque, locally chosen identifier. It is assumed unique per
// participating process and is immutable for the node's lifetime.
type NodeId string

// Date is a per-node monotonically non-decreasing counter.
type Date uint64

// MsgId is a random 64-bit identifier chosen by the originator at message
// creation time. Collisions are treated as negligible.
type MsgId uint64

// Clock is a vector clock snapshot: a mapping from NodeId to Date. It is the
// wire representation carried by a Msg; the live, mutating view a node keeps
// of its own clock lives in package clock.
type Clock map[NodeId]Date

// Get returns the date stored for id, or 0 if the id is absent. An absent
// entry is treated as 0 for merge purposes.
func (c Clock) Get(id NodeId) Date {
	return c[id]
}

// Has reports whether id has an explicit entry in c.
func (c Clock) Has(id NodeId) bool {
	_, ok := c[id]
	return ok
}

// Clone returns an independent copy of c so callers can embed it in a Msg
// without aliasing the original map.
func (c Clock) Clone() Clock {
	out := make(Clock, len(c))
	for id, date := range c {
		out[id] = date
	}
	return out
}

// Merge returns a new Clock holding, for every id present in either c or
// other, the pointwise maximum of the two dates.
func (c Clock) Merge(other Clock) Clock {
	out := c.Clone()
	for id, date := range other {
		if date > out[id] {
			out[id] = date
		}
	}
	return out
}

// Equal reports whether c and other hold the same entries.
func (c Clock) Equal(other Clock) bool {
	if len(c) != len(other) {
		return false
	}
	for id, date := range c {
		if other[id] != date {
			return false
		}
	}
	return true
}
