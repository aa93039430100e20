// Package ui is the out-of-scope terminal front-end. It
// only exercises the UI intent/event boundary the Core defines; the
// reactor is unaware this implementation exists.
package ui

import (
	"fmt"
	"os"

	"github.com/jroimartin/gocui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/ehariz/netchat/pkg/netchat/events"
	"github.com/ehariz/netchat/pkg/netchat/types"
)

const (
	viewInput  = "input"
	viewBody   = "messages"
	viewStatus = "status"
)

// ErrNotATTY is returned when stdin is not a terminal.
var ErrNotATTY = errors.New("netchat: stdin is not a tty")

// UI drives a gocui terminal front-end over the Core's event boundary.
type UI struct {
	gui      *gocui.Gui
	selfID   types.NodeId
	intents  chan<- events.Event
	lastPeer types.NodeId
	messages []string
}

// New acquires the terminal and wires gocui's keybindings to the intent
// channel. The caller is responsible for draining uiEvents into Feed.
func New(selfID types.NodeId, intents chan<- events.Event) (*UI, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, ErrNotATTY
	}
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, errors.Wrap(err, "netchat: acquiring terminal")
	}
	u := &UI{gui: g, selfID: selfID, intents: intents, lastPeer: "You"}
	g.SetManagerFunc(u.layout)
	if err := u.bindKeys(); err != nil {
		g.Close()
		return nil, err
	}
	return u, nil
}

// Close releases the terminal unconditionally, regardless of the error path
// that got the UI here.
func (u *UI) Close() {
	u.gui.Close()
}

// Run blocks until the user quits or the gocui main loop errors out for
// another reason.
func (u *UI) Run() error {
	if err := u.gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return errors.Wrap(err, "netchat: ui main loop")
	}
	return nil
}

// Feed applies one Core-published UIEvent to the view. Safe to call from a goroutine other than the gocui main loop,
// since it defers all state mutation to gui.Update.
func (u *UI) Feed(e events.UIEvent) {
	u.gui.Update(func(*gocui.Gui) error {
		switch e.Kind {
		case events.DistantMessage:
			u.messages = append(u.messages, formatDistant(e.Message))
		case events.ServerMessage:
			u.messages = append(u.messages, "Server: "+e.Text)
		case events.DisplayClock:
			for id, date := range e.Clock {
				u.messages = append(u.messages, fmt.Sprintf("App %s date: %d", id, date))
			}
		}
		return u.redraw()
	})
}

func formatDistant(m types.Msg) string {
	switch m.Header.Kind {
	case types.Public:
		return fmt.Sprintf("%s: %s", m.SenderID, m.Header.Text)
	case types.Private:
		return fmt.Sprintf("%s to You: %s", m.SenderID, m.Header.Text)
	default:
		return fmt.Sprintf("%s: %v", m.SenderID, m.Header.Kind)
	}
}

func (u *UI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if v, err := g.SetView(viewBody, 0, 0, maxX-1, maxY-4); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
	}
	if v, err := g.SetView(viewStatus, 0, maxY-3, maxX-1, maxY-2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		fmt.Fprintf(v, "node %s — Enter: public  Ctrl+P: private  Ctrl+R: set recipient  Ctrl+H: clock  Ctrl+S: snapshot  Ctrl+C: quit", u.selfID)
	}
	if v, err := g.SetView(viewInput, 0, maxY-2, maxX-1, maxY); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Editable = true
		v.Title = "Input"
		if _, err := g.SetCurrentView(viewInput); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) redraw() error {
	v, err := u.gui.View(viewBody)
	if err != nil {
		return err
	}
	v.Clear()
	for _, line := range u.messages {
		fmt.Fprintln(v, line)
	}
	return nil
}

func (u *UI) bindKeys() error {
	bindings := []struct {
		key gocui.Key
		fn  func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{gocui.KeyEnter, u.sendPublic},
		{gocui.KeyCtrlP, u.sendPrivate},
		{gocui.KeyCtrlR, u.setRecipient},
		{gocui.KeyCtrlH, u.getClock},
		{gocui.KeyCtrlS, u.getSnapshot},
	}
	for _, b := range bindings {
		if err := u.gui.SetKeybinding(viewInput, b.key, gocui.ModNone, b.fn); err != nil {
			return errors.Wrap(err, "netchat: binding key")
		}
	}
	return nil
}

func (u *UI) takeInput(v *gocui.View) string {
	text := v.Buffer()
	v.Clear()
	v.SetCursor(0, 0)
	return trimNewline(text)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func (u *UI) sendPublic(g *gocui.Gui, v *gocui.View) error {
	text := u.takeInput(v)
	if text == "" {
		return nil
	}
	u.intents <- events.NewPublicSend(text)
	u.messages = append(u.messages, "You: "+text)
	return u.redraw()
}

func (u *UI) sendPrivate(g *gocui.Gui, v *gocui.View) error {
	text := u.takeInput(v)
	if text == "" {
		return nil
	}
	u.intents <- events.NewPrivateSend(u.lastPeer, text)
	u.messages = append(u.messages, fmt.Sprintf("You to %s: %s", u.lastPeer, text))
	return u.redraw()
}

func (u *UI) setRecipient(g *gocui.Gui, v *gocui.View) error {
	text := u.takeInput(v)
	if text != "" {
		u.lastPeer = types.NodeId(text)
		u.messages = append(u.messages, "Private recipient id set to: "+text)
	}
	return u.redraw()
}

func (u *UI) getClock(g *gocui.Gui, v *gocui.View) error {
	u.intents <- events.NewGetClock()
	return nil
}

func (u *UI) getSnapshot(g *gocui.Gui, v *gocui.View) error {
	u.intents <- events.NewGetSnapshot()
	return nil
}

func (u *UI) quit(g *gocui.Gui, v *gocui.View) error {
	u.intents <- events.NewShutdown()
	return gocui.ErrQuit
}
