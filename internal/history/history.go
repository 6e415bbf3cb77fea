// Package history keeps the linear undo/redo stack of edit states.
package history

import (
	"sync"

	"github.com/example/studio/internal/editstate"
)

// DefaultLimit bounds the number of snapshots kept when no limit is given.
const DefaultLimit = 100

// History is a linear list of snapshots with a cursor. Committing after an
// undo discards the redo tail.
type History struct {
	mu      sync.Mutex
	states  []editstate.State
	current int
	limit   int
}

// New returns a history seeded with initial as its only entry. A limit of
// zero or less selects DefaultLimit.
func New(initial editstate.State, limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{states: []editstate.State{initial.Clone()}, limit: limit}
}

// Commit truncates everything after the cursor, appends s and moves the
// cursor onto it.
func (h *History) Commit(s editstate.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states[:h.current+1], s.Clone())
	if over := len(h.states) - h.limit; over > 0 {
		h.states = append([]editstate.State(nil), h.states[over:]...)
	}
	h.current = len(h.states) - 1
}

// Undo moves the cursor back one entry and returns the state now current.
// At the oldest entry it is a no-op.
func (h *History) Undo() (editstate.State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == 0 {
		return h.states[h.current].Clone(), false
	}
	h.current--
	return h.states[h.current].Clone(), true
}

// Redo moves the cursor forward one entry. At the newest entry it is a no-op.
func (h *History) Redo() (editstate.State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current >= len(h.states)-1 {
		return h.states[h.current].Clone(), false
	}
	h.current++
	return h.states[h.current].Clone(), true
}

// Current returns a copy of the state at the cursor.
func (h *History) Current() editstate.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[h.current].Clone()
}

// Reset discards every entry and seeds the history with s.
func (h *History) Reset(s editstate.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = []editstate.State{s.Clone()}
	h.current = 0
}

// CanUndo reports whether Undo would move the cursor.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current > 0
}

// CanRedo reports whether Redo would move the cursor.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current < len(h.states)-1
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.states)
}

// Index returns the cursor position.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
