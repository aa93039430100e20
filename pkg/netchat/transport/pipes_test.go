package transport

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/ehariz/netchat/pkg/netchat/definition"
)

func mkfifo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fifo")
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	return path
}

func TestInboundReader_ReopensAfterWriterEOF(t *testing.T) {
	path := mkfifo(t)
	log := definition.NewDefaultLogger(nil)

	reader, err := NewInboundReader(path, log)
	if err != nil {
		t.Fatalf("NewInboundReader: %v", err)
	}
	defer reader.Close()

	write := func(lines ...string) {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			t.Fatalf("open for write: %v", err)
		}
		for _, l := range lines {
			if _, err := f.WriteString(l + "\n"); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
		f.Close()
	}

	write("hello")
	select {
	case line := <-reader.Lines():
		if line != "hello" {
			t.Fatalf("got %q, want %q", line, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for first line")
	}

	// A second, independent writer after the first closed exercises the
	// reopen-on-EOF behavior.
	write("world")
	select {
	case line := <-reader.Lines():
		if line != "world" {
			t.Fatalf("got %q, want %q", line, "world")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for second line")
	}
}

func TestOutbox_WritesNewlineTerminatedLines(t *testing.T) {
	path := mkfifo(t)

	done := make(chan string, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			t.Errorf("open for read: %v", err)
			return
		}
		defer f.Close()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		done <- string(buf[:n])
	}()

	// Give the reader a moment to block in Open before the writer opens.
	time.Sleep(50 * time.Millisecond)

	outbox, err := OpenOutbox(path)
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	defer outbox.Close()

	if err := outbox.Write("hi\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case got := <-done:
		if got != "hi\n" {
			t.Fatalf("got %q, want %q", got, "hi\n")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for read side")
	}
}
