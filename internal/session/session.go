// Package session holds the per-user selection state that the original UI
// kept in framework context: the transient Active pointers. The durable
// Selected provider lives in the store, not here. One writer (the selection
// endpoints), many readers.
package session

import (
	"sync"
)

// State carries the Active pointers for one user. Active means "currently
// viewed/edited"; it is transient and lost when the session entry is
// dropped. Zero values mean nothing is active.
type State struct {
	ActiveThreadID   uint `json:"active_thread_id"`
	ActiveProviderID uint `json:"active_provider_id"`
	ActiveSourceID   uint `json:"active_source_id"`
}

type Registry struct {
	mu     sync.RWMutex
	states map[string]*State // keyed by user id
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*State)}
}

func (r *Registry) Get(userID string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.states[userID]; ok {
		return *s
	}
	return State{}
}

func (r *Registry) SetActiveThread(userID string, threadID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state(userID).ActiveThreadID = threadID
}

func (r *Registry) SetActiveProvider(userID string, providerID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state(userID).ActiveProviderID = providerID
}

func (r *Registry) SetActiveSource(userID string, sourceID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state(userID).ActiveSourceID = sourceID
}

// Clear drops a user's session state, e.g. on logout.
func (r *Registry) Clear(userID string) {
	r.mu.Lock()
	delete(r.states, userID)
	r.mu.Unlock()
}

func (r *Registry) state(userID string) *State {
	s, ok := r.states[userID]
	if !ok {
		s = &State{}
		r.states[userID] = s
	}
	return s
}
