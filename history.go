package retouch

import (
	"errors"
	"slices"
	"sync"

	"github.com/gogpu/retouch/op"
)

// DefaultHistoryCapacity is the number of applied operations kept before
// the oldest is evicted.
const DefaultHistoryCapacity = 50

// HistoryState summarizes the history for display.
type HistoryState struct {
	CanUndo      bool `json:"can_undo"`
	CanRedo      bool `json:"can_redo"`
	HistoryCount int  `json:"history_count"`
	RedoCount    int  `json:"redo_count"`
}

// HistorySnapshot is a consistent copy of both sequences.
type HistorySnapshot struct {
	// Applied holds the operations in effect, oldest first.
	Applied []op.Operation

	// Undone holds undone operations, most recently undone last.
	Undone []op.Operation
}

// History is a bounded undo/redo history of edit operations.
//
// Thread safety: History is safe for concurrent use. Every method is a
// single critical section, so observers never see one sequence changed
// without the other.
type History struct {
	mu       sync.Mutex
	applied  []op.Operation
	undone   []op.Operation
	capacity int
}

// NewHistory creates an empty history holding at most capacity applied
// operations. A non-positive capacity selects DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Push validates o without image context, appends it, clears the redo
// sequence and evicts the oldest entry when over capacity. It returns a
// copy of the applied sequence.
func (h *History) Push(o op.Operation) ([]op.Operation, error) {
	if err := op.Validate(o, nil); err != nil {
		return nil, invalidOp("push", o.ID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.snapshotLocked().push(o, h.capacity)
	h.applied, h.undone = next.Applied, next.Undone
	return slices.Clone(h.applied), nil
}

// Undo moves the newest applied operation onto the redo sequence and
// returns a copy of the applied sequence. It returns ErrNothingToUndo when
// nothing is applied.
func (h *History) Undo() ([]op.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := h.snapshotLocked().undo()
	if err != nil {
		return nil, err
	}
	h.applied, h.undone = next.Applied, next.Undone
	return slices.Clone(h.applied), nil
}

// Redo moves the most recently undone operation back onto the applied
// sequence and returns a copy of it. It returns ErrNothingToRedo when
// nothing was undone.
func (h *History) Redo() ([]op.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := h.snapshotLocked().redo()
	if err != nil {
		return nil, err
	}
	h.applied, h.undone = next.Applied, next.Undone
	return slices.Clone(h.applied), nil
}

// Clear empties both sequences.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applied = nil
	h.undone = nil
}

// Applied returns a copy of the applied sequence, oldest first.
func (h *History) Applied() []op.Operation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.applied)
}

// Snapshot returns copies of both sequences taken in one critical section.
func (h *History) Snapshot() HistorySnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *History) snapshotLocked() HistorySnapshot {
	return HistorySnapshot{
		Applied: slices.Clone(h.applied),
		Undone:  slices.Clone(h.undone),
	}
}

// State returns the undo/redo availability and counts.
func (h *History) State() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HistorySnapshot{Applied: h.applied, Undone: h.undone}.State()
}

// Len returns the number of applied operations.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.applied)
}

// Capacity returns the maximum number of applied operations.
func (h *History) Capacity() int {
	return h.capacity
}

// restore replaces both sequences with s, which the caller must not
// retain. Session uses it to commit a candidate state after the candidate
// rendered successfully.
func (h *History) restore(s HistorySnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applied = s.Applied
	h.undone = s.Undone
}

func invalidOp(call, id string, err error) *Error {
	return &Error{Kind: KindInvalidOperation, Op: call, OpID: id, Err: err}
}

// validationOpID returns the operation named by a validation failure.
func validationOpID(err error) string {
	var ve *op.ValidationError
	if errors.As(err, &ve) {
		return ve.OpID
	}
	return ""
}

// State returns the undo/redo availability and counts of s.
func (s HistorySnapshot) State() HistoryState {
	return HistoryState{
		CanUndo:      len(s.Applied) > 0,
		CanRedo:      len(s.Undone) > 0,
		HistoryCount: len(s.Applied),
		RedoCount:    len(s.Undone),
	}
}

// The transitions below work on private copies so that a caller can compute
// the next state, render it, and only then commit it with restore.

func (s HistorySnapshot) push(o op.Operation, capacity int) HistorySnapshot {
	applied := append(s.Applied, o)
	if over := len(applied) - capacity; over > 0 {
		applied = slices.Delete(applied, 0, over)
	}
	return HistorySnapshot{Applied: applied}
}

func (s HistorySnapshot) undo() (HistorySnapshot, error) {
	n := len(s.Applied)
	if n == 0 {
		return s, ErrNothingToUndo
	}
	return HistorySnapshot{
		Applied: s.Applied[:n-1],
		Undone:  append(s.Undone, s.Applied[n-1]),
	}, nil
}

func (s HistorySnapshot) redo() (HistorySnapshot, error) {
	n := len(s.Undone)
	if n == 0 {
		return s, ErrNothingToRedo
	}
	return HistorySnapshot{
		Applied: append(s.Applied, s.Undone[n-1]),
		Undone:  s.Undone[:n-1],
	}, nil
}
