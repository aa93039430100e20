package core

import (
	"strings"
	"testing"
	"time"

	"github.com/ehariz/netchat/pkg/netchat/definition"
	"github.com/ehariz/netchat/pkg/netchat/events"
	"github.com/ehariz/netchat/pkg/netchat/types"
)

// syncInvoker runs spawned work inline, making assertions in tests
// deterministic without sleeps.
type syncInvoker struct{}

func (syncInvoker) Spawn(f func()) { f() }

// fakeOutbox records every written line instead of touching a real pipe.
type fakeOutbox struct {
	lines []string
}

func (f *fakeOutbox) Write(line string) error {
	f.lines = append(f.lines, line)
	return nil
}

func newTestNode(id types.NodeId) (*Node, *fakeOutbox, chan events.UIEvent) {
	outbox := &fakeOutbox{}
	ui := make(chan events.UIEvent, 64)
	n := New(Config{
		ID:       id,
		Outbox:   outbox,
		Log:      definition.NewDefaultLogger(nil),
		Invoker:  syncInvoker{},
		UIEvents: ui,
		Self:     func(e events.Event) {},
		Arm:      func(d time.Duration, f func()) {}, // never fires automatically in tests
	})
	return n, outbox, ui
}

func decodeLast(t *testing.T, lines []string) types.Msg {
	t.Helper()
	if len(lines) == 0 {
		t.Fatalf("expected at least one outbound line")
	}
	m, err := types.Decode(lines[len(lines)-1])
	if err != nil {
		t.Fatalf("failed decoding outbound line: %v", err)
	}
	return m
}

// S1 — clock merge on receive.
func TestNode_ClockMergeOnReceive(t *testing.T) {
	n, outbox, ui := newTestNode("A")
	n.clock.Merge(types.Clock{"A": 3})

	remote := types.Msg{
		ID:       7,
		SenderID: "B",
		Header:   types.NewPublicHeader("hi"),
		Clock:    types.Clock{"B": 5, "A": 1},
	}
	line, err := types.Encode(remote)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	n.handleDistantInput(strings.TrimRight(line, "\n"))

	if got, want := n.clock.Snapshot(), (types.Clock{"A": 4, "B": 5}); !got.Equal(want) {
		t.Fatalf("clock = %v, want %v", got, want)
	}
	if len(outbox.lines) != 1 {
		t.Fatalf("outbox has %d lines, want 1", len(outbox.lines))
	}
	forwarded := decodeLast(t, outbox.lines)
	if forwarded.ID != 7 || forwarded.SenderID != "B" || !forwarded.Clock.Equal(types.Clock{"A": 4, "B": 5}) {
		t.Fatalf("forwarded message = %+v", forwarded)
	}
	select {
	case e := <-ui:
		if e.Kind != events.DistantMessage || e.Message.ID != 7 {
			t.Fatalf("unexpected ui event %+v", e)
		}
	default:
		t.Fatalf("expected a DistantMessage ui event")
	}
}

// S2 — flood deduplication.
func TestNode_FloodDeduplication(t *testing.T) {
	n, outbox, ui := newTestNode("A")
	n.clock.Merge(types.Clock{"A": 3})

	line, _ := types.Encode(types.Msg{
		ID:       7,
		SenderID: "B",
		Header:   types.NewPublicHeader("hi"),
		Clock:    types.Clock{"B": 5, "A": 1},
	})
	trimmed := strings.TrimRight(line, "\n")
	n.handleDistantInput(trimmed)
	n.handleDistantInput(trimmed)

	if got, want := n.clock.Snapshot(), (types.Clock{"A": 4, "B": 5}); !got.Equal(want) {
		t.Fatalf("clock = %v, want %v", got, want)
	}
	if len(outbox.lines) != 1 {
		t.Fatalf("outbox has %d lines, want 1", len(outbox.lines))
	}
	// Drain the first DistantMessage, then expect nothing further.
	<-ui
	select {
	case e := <-ui:
		t.Fatalf("unexpected second ui event %+v", e)
	default:
	}
}

// S3 — private message addressed elsewhere is flooded but not surfaced.
func TestNode_PrivateAddressedElsewhere(t *testing.T) {
	n, outbox, ui := newTestNode("A")

	line, _ := types.Encode(types.Msg{
		ID:       11,
		SenderID: "C",
		Header:   types.NewPrivateHeader("B", "psst"),
		Clock:    types.Clock{"C": 1},
	})
	n.handleDistantInput(strings.TrimRight(line, "\n"))

	if len(outbox.lines) != 1 {
		t.Fatalf("outbox has %d lines, want 1", len(outbox.lines))
	}
	if len(n.saved) != 0 {
		t.Fatalf("saved messages should not grow, got %d", len(n.saved))
	}
	select {
	case e := <-ui:
		t.Fatalf("unexpected ui event %+v", e)
	default:
	}
}

// S5 — snapshot timeout dumps with only the peers that responded, and a
// late response arriving after is a no-op.
func TestNode_SnapshotTimeout(t *testing.T) {
	dir := t.TempDir()
	n, _, ui := newTestNode("A")
	n.snapshotAt = dir
	n.clock.Merge(types.Clock{"A": 2, "B": 1, "C": 1})

	n.handleGetSnapshot()
	if !n.collector.IsWaiting() {
		t.Fatalf("collector should be waiting after GetSnapshot")
	}

	bLine, _ := types.Encode(types.Msg{
		ID:       100,
		SenderID: "B",
		Header:   types.NewSnapshotResponseHeader("A", nil),
		Clock:    types.Clock{"B": 1, "A": 2},
	})
	n.handleDistantInput(strings.TrimRight(bLine, "\n"))

	// Not complete yet (C has not answered): timer fires.
	n.handleSnapshotTimeout()
	if n.collector.IsWaiting() {
		t.Fatalf("collector should be cleared after timeout dump")
	}

	foundSaved := false
drain:
	for {
		select {
		case e := <-ui:
			if e.Kind == events.ServerMessage && e.Text == "Snapshot saved" {
				foundSaved = true
			}
		default:
			break drain
		}
	}
	if !foundSaved {
		t.Fatalf("expected a \"Snapshot saved\" server message")
	}

	// A late response for C must not trigger a second dump.
	cLine, _ := types.Encode(types.Msg{
		ID:       101,
		SenderID: "C",
		Header:   types.NewSnapshotResponseHeader("A", nil),
		Clock:    types.Clock{"C": 1},
	})
	n.handleDistantInput(strings.TrimRight(cLine, "\n"))
	n.handleSnapshotTimeout()
	select {
	case e := <-ui:
		if e.Kind == events.ServerMessage && e.Text == "Snapshot saved" {
			t.Fatalf("unexpected second snapshot dump")
		}
	default:
	}
}

// Invariant 1 — the node's own clock entry strictly increases with every
// send and every first-time receive.
func TestNode_ClockStrictlyIncreases(t *testing.T) {
	n, _, _ := newTestNode("A")
	var last types.Date
	for i := 0; i < 5; i++ {
		n.handleSend(types.NewPublicHeader("x"))
		got := n.clock.Get("A")
		if got <= last {
			t.Fatalf("clock did not increase: %d -> %d", last, got)
		}
		last = got
	}
}
