package server

import (
	"sync"
)

// ReloadNotifier fans out change notifications to any number of subscribers.
// Each subscriber gets a buffered channel which holds at most one pending signal.
type ReloadNotifier struct {
	mu      sync.Mutex
	closed  bool
	nextID  int
	clients map[int]chan struct{}
}

func NewReloadNotifier() *ReloadNotifier {
	return &ReloadNotifier{
		clients: make(map[int]chan struct{}),
	}
}

// Subscribe registers a listener. The returned func unsubscribes and closes the channel.
// A closed notifier returns a nil channel.
func (n *ReloadNotifier) Subscribe() (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return func() {}, nil
	}

	id := n.nextID
	n.nextID++

	ch := make(chan struct{}, 1)
	n.clients[id] = ch

	return func() {
		n.unsubscribe(id)
	}, ch
}

func (n *ReloadNotifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.clients[id]; ok {
		close(ch)
		delete(n.clients, id)
	}
}

// Notify signals every listener without blocking on slow readers.
func (n *ReloadNotifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close closes every subscriber channel, no further signals will arrive.
func (n *ReloadNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	n.closed = true

	for id, ch := range n.clients {
		close(ch)
		delete(n.clients, id)
	}
}
