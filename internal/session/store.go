package session

import "sync"

// Store holds one History per session key, entirely in memory.
//
// A history is owned by exactly one session and is destroyed with it;
// nothing survives across sessions. The store itself is safe for
// concurrent use across sessions; per-session write ordering is the
// caller's responsibility (at most one in-flight invocation per session).
type Store struct {
	mu        sync.RWMutex
	histories map[string]*History
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{histories: make(map[string]*History)}
}

// Init attaches a fresh empty history to key. Calling Init on an
// existing key resets it: a restarted session never leaks messages
// from a prior session under the same key.
func (s *Store) Init(key string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := NewHistory()
	s.histories[key] = h
	return h
}

// Get returns the live history for key, creating an empty one if the
// session was never initialized. The returned reference is shared, not
// copied.
func (s *Store) Get(key string) *History {
	s.mu.RLock()
	h, ok := s.histories[key]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another goroutine may have initialized it meanwhile.
	if h, ok = s.histories[key]; ok {
		return h
	}
	h = NewHistory()
	s.histories[key] = h
	return h
}

// Has reports whether key holds an initialized history.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.histories[key]
	return ok
}

// Append adds msg to the history for key, in insertion order.
func (s *Store) Append(key string, msg Message) {
	s.Get(key).Append(msg)
}

// Remove destroys the history for key. Removing an unknown key is a no-op.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, key)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories)
}
