package shutdown

import "sync"

// Broadcast is a one-shot fan-out stop signal shared by all runner tasks.
// Triggering is idempotent: at most one runner is expected to fire it, but a
// second concurrent Trigger must neither panic nor block.
type Broadcast struct {
	once sync.Once
	ch   chan struct{}
}

func New() *Broadcast {
	return &Broadcast{ch: make(chan struct{})}
}

// Trigger fires the signal. Safe to call any number of times from any
// goroutine.
func (b *Broadcast) Trigger() {
	b.once.Do(func() { close(b.ch) })
}

// Done returns a channel closed once the signal has fired. Every runner is
// subscribed before streaming starts, so no receiver can miss it.
func (b *Broadcast) Done() <-chan struct{} {
	return b.ch
}

// Triggered reports whether the signal has already fired.
func (b *Broadcast) Triggered() bool {
	select {
	case <-b.ch:
		return true
	default:
		return false
	}
}
