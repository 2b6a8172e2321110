// Package sessionkit keeps wizard sessions in memory, keyed by uuid
package sessionkit

import (
	"sort"
	"sync"

	perr "metaview/internal/platform/errors"

	"github.com/google/uuid"
)

// Closer is what a session must do when it is dropped
type Closer interface{ Close() }

// Store is safe for concurrent use
type Store[W Closer] struct {
	kind string
	max  int

	mu    sync.RWMutex
	items map[string]W
}

// New builds a store; kind names the session in errors ("preview session"), max <= 0 means unbounded
func New[W Closer](kind string, max int) *Store[W] {
	return &Store[W]{kind: kind, max: max, items: map[string]W{}}
}

// Add stores w under a fresh id
func (s *Store[W]) Add(w W) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.items) >= s.max {
		return "", perr.Newf(perr.ErrorCodeTooManyRequests, "too many open %ss (max %d)", s.kind, s.max)
	}
	id := uuid.NewString()
	s.items[id] = w
	return id, nil
}

// Get returns the session or a NotFound error
func (s *Store[W]) Get(id string) (W, error) {
	s.mu.RLock()
	w, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		var zero W
		return zero, perr.NotFoundf("%s %q not found", s.kind, id)
	}
	return w, nil
}

// Delete removes the session and closes it
func (s *Store[W]) Delete(id string) error {
	s.mu.Lock()
	w, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return perr.NotFoundf("%s %q not found", s.kind, id)
	}
	w.Close()
	return nil
}

// IDs lists live session ids in lexical order
func (s *Store[W]) IDs() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.items))
	for id := range s.items {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len reports the number of live sessions
func (s *Store[W]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// CloseAll empties the store, closing every session
func (s *Store[W]) CloseAll() {
	s.mu.Lock()
	items := s.items
	s.items = map[string]W{}
	s.mu.Unlock()
	for _, w := range items {
		w.Close()
	}
}
