// Package notify fans a "something changed" signal out to any number of watchers.
// Signals coalesce: a slow watcher sees at most one pending signal and rereads state itself
package notify

import "sync"

// Hub is safe for concurrent use. The zero value is ready
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	next   int
	closed bool
}

// Subscribe returns a channel that receives after every Publish, and a cancel func.
// The channel is closed by cancel or by Close
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs == nil {
		h.subs = map[int]chan struct{}{}
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			h.mu.Unlock()
		})
	}
}

// Publish wakes every watcher without blocking
func (h *Hub) Publish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close closes every watcher channel; later Subscribe calls get a closed channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Len reports the number of live watchers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
