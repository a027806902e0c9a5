package retouch

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/gogpu/retouch/op"
)

func TestNewHistoryCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{0, DefaultHistoryCapacity},
		{-3, DefaultHistoryCapacity},
		{5, 5},
	}
	for _, tt := range tests {
		if got := NewHistory(tt.capacity).Capacity(); got != tt.want {
			t.Errorf("NewHistory(%d).Capacity() = %d, want %d", tt.capacity, got, tt.want)
		}
	}
}

func TestHistoryPushUndoRedo(t *testing.T) {
	h := NewHistory(10)
	a, b := filterOp("a", op.FilterInvert, 1), filterOp("b", op.FilterSepia, 0.5)

	if _, err := h.Push(a); err != nil {
		t.Fatalf("Push(a) error = %v", err)
	}
	applied, err := h.Push(b)
	if err != nil {
		t.Fatalf("Push(b) error = %v", err)
	}
	if got := opIDs(applied); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Push() applied = %v, want [a b]", got)
	}

	applied, err = h.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := opIDs(applied); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Undo() applied = %v, want [a]", got)
	}
	want := HistoryState{CanUndo: true, CanRedo: true, HistoryCount: 1, RedoCount: 1}
	if got := h.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}

	applied, err = h.Redo()
	if err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if got := opIDs(applied); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Redo() applied = %v, want [a b]", got)
	}
	if h.State().CanRedo {
		t.Error("CanRedo = true after redoing the only undone op")
	}
}

func TestHistoryPushClearsRedo(t *testing.T) {
	h := NewHistory(10)
	_, _ = h.Push(filterOp("a", op.FilterInvert, 1))
	_, _ = h.Undo()
	_, _ = h.Push(filterOp("b", op.FilterInvert, 1))

	if h.State().CanRedo {
		t.Error("CanRedo = true after push")
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(0)
	_, err := h.Undo()
	if !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if errors.Is(err, ErrNothingToRedo) {
		t.Error("ErrNothingToUndo matched ErrNothingToRedo")
	}
	if KindOf(err) != KindState {
		t.Errorf("KindOf(Undo()) = %q, want %q", KindOf(err), KindState)
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(DefaultHistoryCapacity)
	for i := range DefaultHistoryCapacity + 1 {
		if _, err := h.Push(brightnessOp(fmt.Sprintf("op-%d", i), 1.1)); err != nil {
			t.Fatalf("Push(%d) error = %v", i, err)
		}
	}
	applied := h.Applied()
	if len(applied) != DefaultHistoryCapacity {
		t.Fatalf("len(Applied()) = %d, want %d", len(applied), DefaultHistoryCapacity)
	}
	if applied[0].ID != "op-1" {
		t.Errorf("oldest = %q, want op-1", applied[0].ID)
	}
	if last := applied[len(applied)-1].ID; last != "op-50" {
		t.Errorf("newest = %q, want op-50", last)
	}
}

func TestHistoryPushInvalid(t *testing.T) {
	h := NewHistory(10)
	_, err := h.Push(brightnessOp("bad", 2.5))
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Push() error = %v, want ErrInvalidOperation", err)
	}
	if !errors.Is(err, op.ErrInvalid) {
		t.Errorf("Push() error = %v, want it to wrap op.ErrInvalid", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d after rejected push, want 0", h.Len())
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(10)
	_, _ = h.Push(filterOp("a", op.FilterInvert, 1))
	_, _ = h.Push(filterOp("b", op.FilterInvert, 1))
	_, _ = h.Undo()
	h.Clear()
	if got := h.State(); got != (HistoryState{}) {
		t.Errorf("State() after Clear = %+v, want zero", got)
	}
}

func TestHistoryReturnsCopies(t *testing.T) {
	h := NewHistory(10)
	applied, _ := h.Push(filterOp("a", op.FilterInvert, 1))
	applied[0].ID = "mutated"
	if got := h.Applied()[0].ID; got != "a" {
		t.Errorf("Applied()[0].ID = %q after caller mutation, want a", got)
	}
}

func TestSnapshotTransitionsDoNotAlias(t *testing.T) {
	h := NewHistory(10)
	_, _ = h.Push(filterOp("a", op.FilterInvert, 1))
	_, _ = h.Push(filterOp("b", op.FilterInvert, 1))

	snap := h.Snapshot()
	next, err := snap.undo()
	if err != nil {
		t.Fatalf("undo() error = %v", err)
	}
	_ = next.push(filterOp("c", op.FilterInvert, 1), 10)

	if got := opIDs(h.Applied()); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Applied() = %v after uncommitted transitions, want [a b]", got)
	}
	if h.State().CanRedo {
		t.Error("uncommitted undo leaked into the history")
	}
}
