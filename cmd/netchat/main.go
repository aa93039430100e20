// Command netchat runs a single decentralized chat node: it opens its FIFO
// pair, drives the reactor in pkg/netchat/core, and renders the terminal
// front-end in internal/ui.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/ehariz/netchat/internal/config"
	"github.com/ehariz/netchat/internal/ui"
	"github.com/ehariz/netchat/pkg/netchat/core"
	"github.com/ehariz/netchat/pkg/netchat/definition"
	"github.com/ehariz/netchat/pkg/netchat/events"
	"github.com/ehariz/netchat/pkg/netchat/transport"
	"github.com/ehariz/netchat/pkg/netchat/types"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "netchat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}

	logFile, err := os.Create(cfg.LogFile)
	if err != nil {
		return errors.Wrapf(err, "opening log file %s", cfg.LogFile)
	}
	defer logFile.Close()
	log := definition.NewDefaultLogger(logFile)

	selfID := types.NodeId(cfg.Name)

	inbound, err := transport.NewInboundReader(cfg.Input, log)
	if err != nil {
		return errors.Wrap(err, "opening input pipe")
	}
	defer inbound.Close()

	mux := events.NewMultiplexer()
	defer mux.Close()
	go mux.PipeLines(inbound.Lines())

	intents := make(chan events.Event, 16)
	go mux.PipeIntents(intents)

	frontend, err := ui.New(selfID, intents)
	if err != nil {
		return errors.Wrap(err, "acquiring terminal")
	}
	defer frontend.Close()

	// The output pipe's blocking open must happen after every producer is
	// wired but before the Core's first send.
	outbox, err := transport.OpenOutbox(cfg.Output)
	if err != nil {
		return errors.Wrap(err, "opening output pipe")
	}
	defer outbox.Close()

	uiEvents := make(chan events.UIEvent, 64)
	go feedUI(frontend, uiEvents)

	node := core.New(core.Config{
		ID:       selfID,
		Outbox:   outbox,
		Log:      log,
		Invoker:  core.NewInvoker(),
		UIEvents: uiEvents,
		Self:     mux.Emit,
	})
	node.Start()

	go node.Run(mux.Out())

	return frontend.Run()
}

func feedUI(frontend *ui.UI, uiEvents <-chan events.UIEvent) {
	for e := range uiEvents {
		frontend.Feed(e)
	}
}
