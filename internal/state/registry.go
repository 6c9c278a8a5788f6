package state

import (
	"maps"
	"slices"
	"sync"
)

// Registry maps Telegram chats to their session state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*State
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*State)}
}

// Get returns the state of a chat.
func (r *Registry) Get(chatID int64) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.sessions[chatID]
	return st, ok
}

// Put stores the state of a chat, replacing any previous one.
func (r *Registry) Put(chatID int64, st *State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[chatID] = st
}

// Remove tears down the state of a chat.
func (r *Registry) Remove(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}

// ChatIDs returns the chats with a session, sorted.
func (r *Registry) ChatIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.sessions))
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
