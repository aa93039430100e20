// Package core implements the node reactor: the single-consumer event loop
// owning the vector clock, the seen-id set, the outbox, the sent-message
// log and the snapshot collector.
package core

import (
	"math/rand"
	"time"

	"github.com/ehariz/netchat/pkg/netchat/clock"
	"github.com/ehariz/netchat/pkg/netchat/events"
	"github.com/ehariz/netchat/pkg/netchat/snapshot"
	"github.com/ehariz/netchat/pkg/netchat/types"
)

// SnapshotTimeoutDelay is the fixed deadline armed by GetSnapshot.
const SnapshotTimeoutDelay = 5 * time.Second

// Outbox is the write side of the transport the reactor floods messages
// onto. Satisfied by *transport.Outbox.
type Outbox interface {
	Write(line string) error
}

// Node is the reactor. It must be driven by a single goroutine calling Run;
// every handler assumes exclusive access to its fields.
type Node struct {
	id         types.NodeId
	clock      *clock.VectorClock
	seen       seenSet
	saved      []types.Msg
	collector  *snapshot.Accumulator
	outbox     Outbox
	log        types.Logger
	invoker    Invoker
	uiEvents   chan<- events.UIEvent
	self       func(events.Event)
	arm        func(time.Duration, func())
	snapshotAt string
}

// Config gathers Node's external collaborators.
type Config struct {
	ID         types.NodeId
	Outbox     Outbox
	Log        types.Logger
	Invoker    Invoker
	UIEvents   chan<- events.UIEvent
	Self       func(events.Event)
	SnapshotAt string

	// Arm schedules f to run after d. Defaults to time.AfterFunc; tests may
	// override it to fire synchronously or never, to exercise the timeout
	// and early-completion paths deterministically.
	Arm func(d time.Duration, f func())
}

// New constructs a Node. Start must be called once before Run to announce
// presence.
func New(cfg Config) *Node {
	arm := cfg.Arm
	if arm == nil {
		arm = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	snapshotAt := cfg.SnapshotAt
	if snapshotAt == "" {
		snapshotAt = "."
	}
	return &Node{
		id:         cfg.ID,
		clock:      clock.New(cfg.ID),
		seen:       newSeenSet(),
		collector:  snapshot.New(cfg.Log),
		outbox:     cfg.Outbox,
		log:        cfg.Log,
		invoker:    cfg.Invoker,
		uiEvents:   cfg.UIEvents,
		self:       cfg.Self,
		arm:        arm,
		snapshotAt: snapshotAt,
	}
}

func allocateMsgID() types.MsgId {
	return types.MsgId(rand.Uint64())
}

// Start announces presence: it increments the clock, allocates a fresh
// MsgId, inserts it into the seen-set and emits a Connection message
// carrying the current clock. It must be called after the
// outbox's blocking open has returned.
func (n *Node) Start() {
	id := allocateMsgID()
	n.seen.insert(id)
	n.clock.IncrementSelf()
	n.flood(types.Msg{
		ID:       id,
		SenderID: n.id,
		Header:   types.NewConnectionHeader(),
		Clock:    n.clock.Snapshot(),
	})
}

// Run drains the event funnel until a Shutdown event is processed.
func (n *Node) Run(in <-chan events.Event) {
	for e := range in {
		if n.process(e) {
			return
		}
	}
}

// process handles one event to completion and reports whether the reactor
// should exit.
func (n *Node) process(e events.Event) (shutdown bool) {
	switch e.Kind {
	case events.PublicSend:
		n.handleSend(types.NewPublicHeader(e.Text))
	case events.PrivateSend:
		n.handleSend(types.NewPrivateHeader(e.Recipient, e.Text))
	case events.GetClock:
		n.handleGetClock()
	case events.GetSnapshot:
		n.handleGetSnapshot()
	case events.SnapshotTimeout:
		n.handleSnapshotTimeout()
	case events.DistantInput:
		n.handleDistantInput(e.Raw)
	case events.Shutdown:
		n.handleShutdown()
		return true
	}
	return false
}

// handleSend allocates a fresh id, increments the clock, writes and records
// the message. Used for both PublicSend and PrivateSend.
func (n *Node) handleSend(header types.Header) {
	id := allocateMsgID()
	n.seen.insert(id)
	n.clock.IncrementSelf()
	msg := types.Msg{
		ID:       id,
		SenderID: n.id,
		Header:   header,
		Clock:    n.clock.Snapshot(),
	}
	n.write(msg)
	n.saved = append(n.saved, msg)
}

// handleGetClock publishes the node's current clock to the UI.
func (n *Node) handleGetClock() {
	n.publish(events.NewDisplayClock(n.clock.Snapshot()))
}

// handleShutdown floods a Disconnection announcement before the reactor
// exits.
func (n *Node) handleShutdown() {
	id := allocateMsgID()
	n.seen.insert(id)
	n.clock.IncrementSelf()
	n.flood(types.Msg{
		ID:       id,
		SenderID: n.id,
		Header:   types.NewDisconnectionHeader(),
		Clock:    n.clock.Snapshot(),
	})
}

// handleDistantInput decodes a raw inbound line, merges its clock into the
// local one on first sight, floods it onward regardless of kind, and
// surfaces it to the UI only for the kinds that call for that.
func (n *Node) handleDistantInput(raw string) {
	msg, err := types.Decode(raw)
	if err != nil {
		n.log.Errorf("dropping malformed inbound line: %v", err)
		return
	}

	if !n.seen.insert(msg.ID) {
		return
	}

	n.clock.IncrementSelf()
	n.clock.Merge(msg.Clock)
	msg.Clock = n.clock.Snapshot()
	n.flood(msg)

	switch msg.Header.Kind {
	case types.Public:
		n.publish(events.NewDistantMessage(msg))
	case types.Private:
		if msg.Header.Recipient == n.id {
			n.publish(events.NewDistantMessage(msg))
			n.saved = append(n.saved, msg)
		}
	case types.Connection:
		n.publish(events.NewServerMessage(string(msg.SenderID) + " joined"))
	case types.Disconnection:
		n.publish(events.NewServerMessage(string(msg.SenderID) + " left"))
	case types.SnapshotRequest:
		n.respondToSnapshotRequest(msg.Header.Recipient)
	case types.SnapshotResponse:
		if msg.Header.Recipient == n.id {
			n.acceptSnapshotResponse(msg)
		}
	}
}

func (n *Node) respondToSnapshotRequest(requester types.NodeId) {
	id := allocateMsgID()
	n.seen.insert(id)
	n.clock.IncrementSelf()
	n.write(types.Msg{
		ID:       id,
		SenderID: n.id,
		Header:   types.NewSnapshotResponseHeader(requester, cloneSaved(n.saved)),
		Clock:    n.clock.Snapshot(),
	})
}

func (n *Node) acceptSnapshotResponse(msg types.Msg) {
	senderDate := msg.Clock.Get(msg.SenderID)
	knownIds := n.clock.Ids()
	n.collector.Accept(msg.SenderID, senderDate, msg.Header.Responses)
	if n.collector.IsComplete(knownIds) {
		n.self(events.NewSnapshotTimeout())
	}
}

// handleGetSnapshot floods a SnapshotRequest, seeds the collector with the
// node's own local view, and arms the fallback timeout.
func (n *Node) handleGetSnapshot() {
	id := allocateMsgID()
	n.seen.insert(id)
	n.clock.IncrementSelf()
	req := types.Msg{
		ID:       id,
		SenderID: n.id,
		Header:   types.NewSnapshotRequestHeader(n.id),
		Clock:    n.clock.Snapshot(),
	}
	n.write(req)
	n.saved = append(n.saved, req)

	n.collector.Begin(n.id, n.clock.Get(n.id), cloneSaved(n.saved))
	n.arm(SnapshotTimeoutDelay, func() { n.self(events.NewSnapshotTimeout()) })
}

// handleSnapshotTimeout dumps the collected snapshot. It is a no-op if the
// collector is not waiting, which lets an early-completion event and the
// armed timer coexist without a double dump.
func (n *Node) handleSnapshotTimeout() {
	if !n.collector.IsWaiting() {
		return
	}
	if err := n.collector.Dump(n.snapshotAt); err != nil {
		n.log.Errorf("failed dumping snapshot: %v", err)
	}
	n.publish(events.NewServerMessage("Snapshot saved"))
	n.collector.Clear()
}

// write sends msg through the outbox, surfacing a failure as a
// ServerMessage rather than a fatal error.
func (n *Node) write(msg types.Msg) {
	line, err := types.Encode(msg)
	if err != nil {
		n.log.Errorf("failed encoding message %v: %v", msg.ID, err)
		return
	}
	if err := n.outbox.Write(line); err != nil {
		n.log.Errorf("failed writing to outbox: %v", err)
		n.publish(events.NewServerMessage("No one can hear you"))
		return
	}
	n.log.Debugf("sent message %v at local date %d", msg.ID, n.clock.Get(n.id))
}

// flood is write with the intent made explicit at call sites: re-emitting a
// message onward to every neighbor reachable through the single outbound
// pipe.
func (n *Node) flood(msg types.Msg) {
	n.write(msg)
}

func (n *Node) publish(e events.UIEvent) {
	if n.uiEvents == nil {
		return
	}
	n.invoker.Spawn(func() {
		select {
		case n.uiEvents <- e:
		case <-time.After(time.Second):
			n.log.Warnf("ui event dropped, receiver not draining")
		}
	})
}

func cloneSaved(in []types.Msg) []types.Msg {
	out := make([]types.Msg, len(in))
	copy(out, in)
	return out
}
