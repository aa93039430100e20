// Package events defines the Core's single inbound event stream and the
// multiplexer that funnels three independent producers — UI intents, the
// inbound pipe reader, and the reactor's own self-channel — into it.
package events

import "github.com/ehariz/netchat/pkg/netchat/types"

// Kind discriminates the Event union consumed by the reactor.
type Kind int

const (
	// PublicSend requests a broadcast chat line.
	PublicSend Kind = iota
	// PrivateSend requests a direct message to Recipient.
	PrivateSend
	// GetClock requests a DisplayClock UI event.
	GetClock
	// GetSnapshot starts the distributed snapshot protocol.
	GetSnapshot
	// Shutdown requests a clean reactor exit.
	Shutdown
	// DistantInput carries one raw line read from the inbound pipe.
	DistantInput
	// SnapshotTimeout is the reactor's self-enqueued snapshot deadline.
	SnapshotTimeout
)

// Event is the single type flowing through the funnel. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind      Kind
	Text      string
	Recipient types.NodeId
	Raw       string
}

// NewPublicSend builds a PublicSend intent.
func NewPublicSend(text string) Event { return Event{Kind: PublicSend, Text: text} }

// NewPrivateSend builds a PrivateSend intent.
func NewPrivateSend(recipient types.NodeId, text string) Event {
	return Event{Kind: PrivateSend, Recipient: recipient, Text: text}
}

// NewGetClock builds a GetClock intent.
func NewGetClock() Event { return Event{Kind: GetClock} }

// NewGetSnapshot builds a GetSnapshot intent.
func NewGetSnapshot() Event { return Event{Kind: GetSnapshot} }

// NewShutdown builds a Shutdown intent.
func NewShutdown() Event { return Event{Kind: Shutdown} }

// NewDistantInput wraps one raw inbound line.
func NewDistantInput(raw string) Event { return Event{Kind: DistantInput, Raw: raw} }

// NewSnapshotTimeout builds the self-enqueued timeout event.
func NewSnapshotTimeout() Event { return Event{Kind: SnapshotTimeout} }

// Multiplexer fans UI intents, inbound pipe lines and self-events into one
// ordered channel. Events from the same producer arrive at the Core in the
// order produced; across producers only the funnel's arrival order is
// guaranteed.
type Multiplexer struct {
	out  chan Event
	done chan struct{}
}

// NewMultiplexer creates an empty funnel. Call PipeIntents or PipeLines
// once per producer before the Core starts draining Out().
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{
		out:  make(chan Event, 256),
		done: make(chan struct{}),
	}
}

// Out returns the single ordered channel the Core consumes.
func (m *Multiplexer) Out() <-chan Event {
	return m.out
}

// Emit enqueues an event directly, used by the reactor to self-signal (e.g.
// an early-completion SnapshotTimeout racing the armed timer).
func (m *Multiplexer) Emit(e Event) {
	select {
	case <-m.done:
	case m.out <- e:
	}
}

// Close stops accepting further events. Safe to call once.
func (m *Multiplexer) Close() {
	close(m.done)
}

// PipeIntents forwards every Event received on in to the funnel until in is
// closed or the multiplexer is closed.
func (m *Multiplexer) PipeIntents(in <-chan Event) {
	for {
		select {
		case <-m.done:
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			m.Emit(e)
		}
	}
}

// PipeLines forwards every raw line received on in as a DistantInput event.
func (m *Multiplexer) PipeLines(in <-chan string) {
	for {
		select {
		case <-m.done:
			return
		case line, ok := <-in:
			if !ok {
				return
			}
			m.Emit(NewDistantInput(line))
		}
	}
}
