package state

import "sync"

// Notifier is a coalescing change signal. Multiple Notify calls before a
// receive collapse into one pending notification.
type Notifier struct {
	once sync.Once
	ch   chan struct{}
}

// NewNotifier returns a ready notifier. The zero value is also usable.
func NewNotifier() *Notifier {
	n := &Notifier{}
	n.init()
	return n
}

func (n *Notifier) init() {
	n.once.Do(func() { n.ch = make(chan struct{}, 1) })
}

// Notify marks a change as pending without blocking.
func (n *Notifier) Notify() {
	n.init()
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives a value while a change is pending.
func (n *Notifier) C() <-chan struct{} {
	n.init()
	return n.ch
}

// Pending drains the notifier and reports whether a change was pending.
func (n *Notifier) Pending() bool {
	n.init()
	select {
	case <-n.ch:
		return true
	default:
		return false
	}
}
