package lifecycle

import (
	"os"
	"sync"
)

// AppState is the host's foreground state.
type AppState int

const (
	StateUnknown AppState = iota
	StateActive
	StateInactive
	StateBackground
)

// String returns a human-readable state string.
func (s AppState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateBackground:
		return "background"
	default:
		return "unknown"
	}
}

// endsProcess reports whether moving from prev to next closes the process window.
func endsProcess(prev, next AppState) bool {
	return next == StateBackground && (prev == StateActive || prev == StateUnknown)
}

// Transitions delivers foreground/background changes.
type Transitions interface {
	OnTransition(fn func(AppState)) (unsubscribe func())
}

// Hub fans published states out to subscribers.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(AppState)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(AppState))}
}

// OnTransition subscribes fn. The returned func is idempotent.
func (h *Hub) OnTransition(fn func(AppState)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers state to every subscriber synchronously.
func (h *Hub) Publish(state AppState) {
	h.mu.Lock()
	fns := make([]func(AppState), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// signalState maps a host signal to a transition.
func signalState(sig os.Signal) (AppState, bool) {
	state, ok := signalStates[sig]
	return state, ok
}
