package realtime

import (
	"sync"
	"time"
)

// Entry holds state and a broadcaster for one stream.
type Entry[T any, E any] struct {
	ID    string
	State T
	hub   *Broadcaster[E]
}

// Store manages entries and their broadcasters. Entries can be scheduled for
// removal so short-lived streams do not accumulate in memory.
type Store[T any, E any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[T, E]
	timers  map[string]*time.Timer
}

// NewStore creates an empty store.
func NewStore[T any, E any]() *Store[T, E] {
	return &Store[T, E]{
		entries: make(map[string]*Entry[T, E]),
		timers:  make(map[string]*time.Timer),
	}
}

// Create adds an entry with the given id and state, and a new Broadcaster.
// An existing entry with the same id is replaced and its subscribers released.
func (s *Store[T, E]) Create(id string, state T) *Entry[T, E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[id]; ok {
		old.hub.Close()
	}
	e := &Entry[T, E]{ID: id, State: state, hub: NewBroadcaster[E]()}
	s.entries[id] = e
	return e
}

// Get returns the entry by ID if it exists.
func (s *Store[T, E]) Get(id string) (*Entry[T, E], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Len returns the number of live entries.
func (s *Store[T, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Publish notifies the entry's subscribers. It reports false for unknown ids.
func (s *Store[T, E]) Publish(id string, event E) bool {
	e, ok := s.Get(id)
	if !ok {
		return false
	}
	e.hub.Publish(event)
	return true
}

// Subscribe registers a subscriber on the entry. The returned func releases it.
func (s *Store[T, E]) Subscribe(id string) (chan E, func(), bool) {
	e, ok := s.Get(id)
	if !ok {
		return nil, func() {}, false
	}
	ch := e.hub.Subscribe()
	return ch, func() { e.hub.Unsubscribe(ch) }, true
}

// Seal closes the entry's broadcaster so every subscriber observes the end of
// the stream. The entry itself stays readable until deleted.
func (s *Store[T, E]) Seal(id string) {
	if e, ok := s.Get(id); ok {
		e.hub.Close()
	}
}

// Delete removes the entry and releases its subscribers.
func (s *Store[T, E]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

func (s *Store[T, E]) deleteLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if e, ok := s.entries[id]; ok {
		e.hub.Close()
		delete(s.entries, id)
	}
}

// ExpireAfter schedules removal of the entry after d. Calling it again
// reschedules. Non-positive durations delete immediately.
func (s *Store[T, E]) ExpireAfter(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return
	}
	if d <= 0 {
		s.deleteLocked(id)
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(d, func() {
		s.Delete(id)
	})
}

// Close stops pending expiry timers and releases every subscriber.
func (s *Store[T, E]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.entries {
		s.deleteLocked(id)
	}
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
