package identity

import (
	"context"
	"sync"
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type Event struct {
	Kind    EventKind `json:"event"`
	Session Session   `json:"session"`
}

type Listener func(ctx context.Context, ev Event)

// Notifier fans auth events out to subscribers in the publishing goroutine.
type Notifier struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Listener) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *Notifier) Publish(ctx context.Context, ev Event) {
	n.mu.RLock()
	snapshot := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		snapshot = append(snapshot, fn)
	}
	n.mu.RUnlock()

	for _, fn := range snapshot {
		fn(ctx, ev)
	}
}

func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
