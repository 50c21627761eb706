package televisor

import (
	"sync"
	"time"

	"github.com/rileyhilliard/televisor/internal/lifecycle"
)

// Snapshot is the JSON view served in headless mode.
type Snapshot struct {
	Display    Display     `json:"display"`
	AppState   string      `json:"app_state"`
	LastCall   *CallStatus `json:"last_call,omitempty"`
	LastNotice *CallStatus `json:"last_notice,omitempty"`
	FeedError  string      `json:"feed_error,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Store is a mutex-guarded State for consumers outside the Bubble Tea loop.
type Store struct {
	mu      sync.RWMutex
	state   State
	updated time.Time
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Apply folds e into the stored state.
func (s *Store) Apply(e lifecycle.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Apply(e)
	s.updated = s.now()
}

// Sink adapts the store to a lifecycle sink.
func (s *Store) Sink() lifecycle.Sink {
	return s.Apply
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot derives the current display.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	st, updated := s.state, s.updated
	s.mu.RUnlock()

	return Snapshot{
		Display:    Derive(st),
		AppState:   st.AppState.String(),
		LastCall:   st.LastCall,
		LastNotice: st.LastNotice,
		FeedError:  st.FeedError,
		UpdatedAt:  updated,
	}
}
