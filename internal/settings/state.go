package settings

import "sync"

// State holds the process-wide settings record. The owner mutates it,
// the writer reads a snapshot of it when it persists.
type State struct {
	mu  sync.RWMutex
	rec Record
}

// NewState creates a state holding rec
func NewState(rec Record) *State {
	return &State{rec: rec}
}

// Get returns a copy of the current record
func (s *State) Get() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Set replaces the current record
func (s *State) Set(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
}

// Update applies fn to the record under the lock, then normalizes it.
// It returns the resulting record.
func (s *State) Update(fn func(*Record)) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.rec)
	s.rec.Normalize()
	return s.rec
}
