package history

import (
	"testing"

	"gocv.io/x/gocv"
)

// state builds a tiny image tagged with a marker value so snapshots can be
// told apart.
func state(t *testing.T, marker uint8) gocv.Mat {
	t.Helper()
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(marker), float64(marker), float64(marker), 0),
		4, 4, gocv.MatTypeCV8UC3)
}

func marker(img gocv.Mat) uint8 {
	return img.GetUCharAt3(0, 0, 0)
}

func TestUndoNeedsTwoStates(t *testing.T) {
	m := NewManager(10)
	defer m.Clear()

	if _, ok := m.Undo(); ok {
		t.Error("undo on empty history should fail")
	}

	a := state(t, 1)
	defer a.Close()
	m.Push(a)

	if m.CanUndo() {
		t.Error("a single state is not undoable")
	}
	if _, ok := m.Undo(); ok {
		t.Error("undo with one state should fail")
	}
	if m.UndoCount() != 0 {
		t.Errorf("UndoCount = %d, want 0", m.UndoCount())
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(10)
	defer m.Clear()

	a := state(t, 10)
	defer a.Close()
	b := state(t, 20)
	defer b.Close()
	m.Push(a)
	m.Push(b)

	prev, ok := m.Undo()
	if !ok {
		t.Fatal("undo failed")
	}
	defer prev.Close()
	if marker(prev) != 10 {
		t.Errorf("undo returned marker %d, want 10", marker(prev))
	}

	if !m.CanRedo() {
		t.Fatal("redo should be available after undo")
	}
	next, ok := m.Redo()
	if !ok {
		t.Fatal("redo failed")
	}
	defer next.Close()
	if marker(next) != 20 {
		t.Errorf("redo returned marker %d, want 20", marker(next))
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(10)
	defer m.Clear()

	for _, v := range []uint8{1, 2, 3} {
		s := state(t, v)
		m.Push(s)
		s.Close()
	}

	prev, _ := m.Undo()
	prev.Close()
	if m.RedoCount() != 1 {
		t.Fatalf("RedoCount = %d, want 1", m.RedoCount())
	}

	s := state(t, 4)
	m.Push(s)
	s.Close()

	if m.CanRedo() {
		t.Error("push must discard forward history")
	}
}

func TestCapEvictsOldest(t *testing.T) {
	m := NewManager(3)
	defer m.Clear()

	for _, v := range []uint8{1, 2, 3, 4, 5} {
		s := state(t, v)
		m.Push(s)
		s.Close()
	}

	if m.UndoCount() != 2 {
		t.Fatalf("UndoCount = %d, want 2", m.UndoCount())
	}

	// walk back to the oldest surviving state
	first, _ := m.Undo()
	first.Close()
	oldest, ok := m.Undo()
	if !ok {
		t.Fatal("second undo failed")
	}
	defer oldest.Close()
	if marker(oldest) != 3 {
		t.Errorf("oldest survivor marker = %d, want 3", marker(oldest))
	}
	if m.CanUndo() {
		t.Error("no further undo should remain")
	}
}

func TestMinimumCapacityIsTwo(t *testing.T) {
	m := NewManager(0)
	defer m.Clear()

	a := state(t, 1)
	defer a.Close()
	b := state(t, 2)
	defer b.Close()
	m.Push(a)
	m.Push(b)

	if !m.CanUndo() {
		t.Error("capacity floor of two must keep one undo step available")
	}
}

func TestPushIgnoresEmptyMat(t *testing.T) {
	m := NewManager(10)
	defer m.Clear()

	empty := gocv.NewMat()
	defer empty.Close()
	m.Push(empty)
	if _, ok := m.Current(); ok {
		t.Error("empty mats must not be recorded")
	}
}

func TestCurrentReflectsLatest(t *testing.T) {
	m := NewManager(10)
	defer m.Clear()

	if _, ok := m.Current(); ok {
		t.Error("empty history has no current state")
	}

	s := state(t, 42)
	defer s.Close()
	m.Push(s)

	cur, ok := m.Current()
	if !ok {
		t.Fatal("current state missing after push")
	}
	defer cur.Close()
	if marker(cur) != 42 {
		t.Errorf("current marker = %d, want 42", marker(cur))
	}
}

func TestClear(t *testing.T) {
	m := NewManager(10)

	for _, v := range []uint8{1, 2, 3} {
		s := state(t, v)
		m.Push(s)
		s.Close()
	}
	prev, _ := m.Undo()
	prev.Close()

	m.Clear()
	if m.CanUndo() || m.CanRedo() {
		t.Error("clear must drop both stacks")
	}
	if m.UndoCount() != 0 || m.RedoCount() != 0 {
		t.Error("counts must be zero after clear")
	}
}
