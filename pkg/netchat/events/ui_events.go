package events

import "github.com/ehariz/netchat/pkg/netchat/types"

// UIKind discriminates the events the Core publishes toward the UI.
type UIKind int

const (
	// DistantMessage carries a Msg the UI should display.
	DistantMessage UIKind = iota
	// ServerMessage carries a status-bar line.
	ServerMessage
	// DisplayClock carries a clock snapshot to render.
	DisplayClock
)

// UIEvent is the single type flowing from the Core to the UI layer.
type UIEvent struct {
	Kind    UIKind
	Message types.Msg
	Text    string
	Clock   types.Clock
}

// NewDistantMessage wraps a Msg for display.
func NewDistantMessage(m types.Msg) UIEvent {
	return UIEvent{Kind: DistantMessage, Message: m}
}

// NewServerMessage wraps a status-bar line.
func NewServerMessage(text string) UIEvent {
	return UIEvent{Kind: ServerMessage, Text: text}
}

// NewDisplayClock wraps a clock snapshot.
func NewDisplayClock(c types.Clock) UIEvent {
	return UIEvent{Kind: DisplayClock, Clock: c}
}
