package core

import "github.com/ehariz/netchat/pkg/netchat/types"

// seenSet tracks every MsgId the node has already flooded. It grows
// monotonically and is never pruned — acceptable for session lifetimes.
type seenSet map[types.MsgId]struct{}

func newSeenSet() seenSet {
	return make(seenSet)
}

// insert records id, returning true if it was not already present.
func (s seenSet) insert(id types.MsgId) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s seenSet) contains(id types.MsgId) bool {
	_, ok := s[id]
	return ok
}
