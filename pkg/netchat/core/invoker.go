package core

import "sync"

// Invoker spawns and tracks the goroutines the reactor fans work out to —
// today, the delivery of each published UI event. It
// exists so tests can swap in an invoker that blocks for completion before
// asserting on node state.
type Invoker interface {
	Spawn(f func())
}

// defaultInvoker runs every task on its own goroutine and tracks it with a
// WaitGroup so Stop can drain outstanding work, e.g. at the end of a test.
type defaultInvoker struct {
	group sync.WaitGroup
}

// NewInvoker returns the default, unbounded-goroutine Invoker.
func NewInvoker() *defaultInvoker {
	return &defaultInvoker{}
}

func (i *defaultInvoker) Spawn(f func()) {
	i.group.Add(1)
	go func() {
		defer i.group.Done()
		f()
	}()
}

// Stop blocks until every spawned task has returned.
func (i *defaultInvoker) Stop() {
	i.group.Wait()
}
