package transport

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Outbox is the single-writer append handle onto the output pipe. Opening
// it blocks until a reader attaches to the other end of the FIFO; callers
// should open it after wiring every other producer so no events are lost
// while the open call blocks.
type Outbox struct {
	mutex sync.Mutex
	file  *os.File
}

// OpenOutbox performs the blocking open in write-append mode.
func OpenOutbox(path string) (*Outbox, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "netchat: opening outbound pipe %s", path)
	}
	return &Outbox{file: file}, nil
}

// Write appends line to the pipe exactly as given; no newline is added, so
// callers pass an already newline-terminated line (as types.Encode
// produces). A write failure
// is non-fatal from the transport's point of view: the caller (the
// reactor) decides how to surface it.
func (o *Outbox) Write(line string) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if _, err := o.file.WriteString(line); err != nil {
		return errors.Wrap(err, "netchat: writing to outbound pipe")
	}
	return nil
}

// Close flushes and releases the underlying file handle.
func (o *Outbox) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.file.Close()
}
