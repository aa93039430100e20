package clock

import (
	"testing"

	"github.com/ehariz/netchat/pkg/netchat/types"
)

func TestVectorClock_New(t *testing.T) {
	c := New("A")
	if got := c.Snapshot(); !got.Equal(types.Clock{"A": 0}) {
		t.Fatalf("new clock = %v, want {A:0}", got)
	}
}

func TestVectorClock_MergeThenIncrementDominates(t *testing.T) {
	c := New("A")
	c.Merge(types.Clock{"B": 5, "A": 1})
	c.IncrementSelf()

	snap := c.Snapshot()
	for id, date := range (types.Clock{"B": 5, "A": 1}) {
		if snap.Get(id) < date {
			t.Fatalf("entry %s = %d, want >= %d", id, snap.Get(id), date)
		}
	}
	if snap.Get("A") <= 1 {
		t.Fatalf("self entry should be strictly greater than any previously observed value, got %d", snap.Get("A"))
	}
}

func TestVectorClock_IncrementSelfStrictlyIncreases(t *testing.T) {
	c := New("A")
	var last types.Date
	for i := 0; i < 10; i++ {
		got := c.IncrementSelf()
		if got <= last {
			t.Fatalf("increment did not strictly increase: %d -> %d", last, got)
		}
		last = got
	}
}
