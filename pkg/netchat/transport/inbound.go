// Package transport implements the two FIFO endpoints a node talks through:
// a self-reopening line reader on the input pipe and a blocking-open,
// append-only writer on the output pipe.
package transport

import (
	"bufio"
	"context"
	"os"

	plog "github.com/prometheus/common/log"

	"github.com/ehariz/netchat/pkg/netchat/types"
)

// InboundReader reads newline-terminated lines from a named pipe. Because
// the pipe is written by multiple peers, every writer's close yields an EOF
// on the reader side; the reader transparently reopens and keeps going
// until its context is cancelled.
type InboundReader struct {
	path     string
	log      types.Logger
	producer chan string
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewInboundReader starts the reopening poll loop in the background. The
// pipe is opened inside that loop, not here, so the returned error is
// always nil; a failed open is logged by the loop, which then stops.
func NewInboundReader(path string, log types.Logger) (*InboundReader, error) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &InboundReader{
		path:     path,
		log:      log,
		producer: make(chan string, 64),
		ctx:      ctx,
		cancel:   cancel,
	}
	go r.poll()
	return r, nil
}

// Lines returns the channel raw lines are published on.
func (r *InboundReader) Lines() <-chan string {
	return r.producer
}

// Close stops the reopening loop. In-flight reads unblock only once the
// underlying file is closed or the writer side goes away.
func (r *InboundReader) Close() {
	r.cancel()
	close(r.producer)
}

func (r *InboundReader) poll() {
	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}
		if err := r.readOnce(); err != nil {
			plog.Errorf("inbound pipe %s: %v", r.path, err)
			return
		}
	}
}

// readOnce opens the pipe, reads lines until EOF, and returns nil so the
// caller reopens — EOF on a FIFO read side just means every current writer
// has closed, not that the conversation is over.
func (r *InboundReader) readOnce() error {
	file, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-r.ctx.Done():
			return nil
		case r.producer <- scanner.Text():
		}
	}
	return scanner.Err()
}
