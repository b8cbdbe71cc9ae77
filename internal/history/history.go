// Package history provides the bounded undo/redo snapshot store.
//
// Snapshots are full-resolution image clones. The undo stack keeps the
// current state as its last element, so undo needs at least two entries;
// pushing a new state invalidates the redo stack.
package history

import (
	"sync"

	"gocv.io/x/gocv"
)

// Manager owns two snapshot stacks and every Mat stored in them.
type Manager struct {
	mu        sync.Mutex
	undoStack []gocv.Mat
	redoStack []gocv.Mat
	maxStates int
}

func NewManager(maxStates int) *Manager {
	if maxStates < 2 {
		maxStates = 2
	}
	return &Manager{maxStates: maxStates}
}

// Push records a new state. The oldest entry is evicted once the stack is
// full, and any forward history is discarded.
func (m *Manager) Push(img gocv.Mat) {
	if img.Empty() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.undoStack = append(m.undoStack, img.Clone())
	if len(m.undoStack) > m.maxStates {
		evicted := m.undoStack[0]
		m.undoStack = m.undoStack[1:]
		evicted.Close()
	}

	m.clearRedoLocked()
}

// Undo moves the current state to the redo stack and returns a clone of its
// predecessor. Reports false when there is nothing to undo.
func (m *Manager) Undo() (gocv.Mat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undoStack) < 2 {
		return gocv.Mat{}, false
	}

	current := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.redoStack = append(m.redoStack, current)

	return m.undoStack[len(m.undoStack)-1].Clone(), true
}

// Redo reapplies the most recently undone state, returning a clone of it.
func (m *Manager) Redo() (gocv.Mat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redoStack) == 0 {
		return gocv.Mat{}, false
	}

	state := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.undoStack = append(m.undoStack, state)

	return state.Clone(), true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) >= 2
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// UndoCount returns how many undo steps are available.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undoStack) == 0 {
		return 0
	}
	return len(m.undoStack) - 1
}

func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// Current returns a clone of the latest state.
func (m *Manager) Current() (gocv.Mat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undoStack) == 0 {
		return gocv.Mat{}, false
	}
	return m.undoStack[len(m.undoStack)-1].Clone(), true
}

// Clear drops all history and releases the stored snapshots.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.undoStack {
		m.undoStack[i].Close()
	}
	m.undoStack = m.undoStack[:0]
	m.clearRedoLocked()
}

func (m *Manager) clearRedoLocked() {
	for i := range m.redoStack {
		m.redoStack[i].Close()
	}
	m.redoStack = m.redoStack[:0]
}
