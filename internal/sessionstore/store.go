// Package sessionstore provides an ephemeral, thread-safe, in-memory
// registry of the dialogue sessions a server is currently running.
//
// # Concurrency Model
//
// Every connected client adds and removes its own entry from its own
// goroutine while the health endpoint and shutdown path read the whole
// registry. Keys are independent and short-lived. Entries live in a
// sync.Map and no global lock is taken.
package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/talkbot/internal/engine"
)

// Entry is a live session together with the means to stop it.
type Entry struct {
	Session *engine.Session
	Cancel  context.CancelFunc
	Started time.Time
}

// Store is an in-memory registry of sessions keyed by connection ID.
type Store struct {
	sessions sync.Map // Key: connection ID, Value: *Entry
}

// New creates a new, empty session store.
func New() *Store {
	return &Store{}
}

// Add registers an entry under id, replacing any previous one.
func (s *Store) Add(id string, entry *Entry) {
	s.sessions.Store(id, entry)
}

// Get returns the entry registered under id.
func (s *Store) Get(id string) (*Entry, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Remove unregisters id and returns its entry, if any.
func (s *Store) Remove(id string) (*Entry, bool) {
	v, ok := s.sessions.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// CancelAll cancels every registered session. Entries are removed by their
// owners once their run loop returns.
func (s *Store) CancelAll() {
	s.sessions.Range(func(_, v any) bool {
		if entry := v.(*Entry); entry.Cancel != nil {
			entry.Cancel()
		}
		return true
	})
}
