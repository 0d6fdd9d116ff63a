// Package view decides which of the two screens is shown.
package view

import (
	"sync"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

// Screen is one of the two top-level screens.
type Screen string

const (
	ScreenSelection Screen = "selection"
	ScreenChat      Screen = "chat"
)

// State is derived entirely from the selected character id.
type State struct {
	Screen      Screen `json:"screen"`
	CharacterID string `json:"characterId,omitempty"`
}

// Router holds the selected character id. The only transitions are
// Selection -> Chat(id) and Chat(id) -> Selection.
type Router struct {
	registry persona.Store

	mu       sync.RWMutex
	selected string
}

// NewRouter returns a Router on the selection screen.
func NewRouter(registry persona.Store) *Router {
	return &Router{registry: registry}
}

// Select moves to the chat screen for id. It is a no-op, returning false,
// when id is not registered or a chat is already open.
func (r *Router) Select(id string) bool {
	if r.registry == nil {
		return false
	}
	if _, ok := r.registry.FindByID(id); !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected != "" {
		return false
	}
	r.selected = id
	return true
}

// Back returns to the selection screen. It returns false when already there.
func (r *Router) Back() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == "" {
		return false
	}
	r.selected = ""
	return true
}

// State reports the current screen.
func (r *Router) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == "" {
		return State{Screen: ScreenSelection}
	}
	return State{Screen: ScreenChat, CharacterID: r.selected}
}
