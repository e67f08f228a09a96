package service

import (
	"sync"

	"github.com/google/uuid"
)

// Snapshot captures the page state around one applied correction. PriorRef
// is taken before the apply mutates anything; RecordID and ResultRef are
// filled in once the apply succeeds.
type Snapshot struct {
	ID        uuid.UUID
	IssueID   uuid.UUID
	PageID    uuid.UUID
	PriorRef  string
	RecordID  uuid.UUID
	ResultRef string
}

// History holds the bounded undo and redo stacks of each document. When
// the undo stack is at capacity the oldest entry is discarded, regardless
// of how recently it was inspected.
type History struct {
	mu    sync.Mutex
	depth int
	undo  map[uuid.UUID][]*Snapshot
	redo  map[uuid.UUID][]*Snapshot
}

// NewHistory creates a history keeping up to depth entries per document
func NewHistory(depth int) *History {
	return &History{
		depth: depth,
		undo:  make(map[uuid.UUID][]*Snapshot),
		redo:  make(map[uuid.UUID][]*Snapshot),
	}
}

// Push records a new apply snapshot and invalidates the redo stack.
// Returns the entry id used to complete or drop the entry later.
func (h *History) Push(documentID uuid.UUID, snap Snapshot) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap.ID = uuid.New()
	stack := h.undo[documentID]
	if len(stack) >= h.depth {
		stack = stack[1:]
	}
	h.undo[documentID] = append(stack, &snap)
	delete(h.redo, documentID)
	return snap.ID
}

// Complete fills in the result of a finished apply
func (h *History) Complete(documentID, entryID, recordID uuid.UUID, resultRef string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, snap := range h.undo[documentID] {
		if snap.ID == entryID {
			snap.RecordID = recordID
			snap.ResultRef = resultRef
			return
		}
	}
}

// Drop removes an entry after a failed apply. No artifact changed, so the
// snapshot must not become undoable.
func (h *History) Drop(documentID, entryID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	stack := h.undo[documentID]
	for i, snap := range stack {
		if snap.ID == entryID {
			h.undo[documentID] = append(stack[:i], stack[i+1:]...)
			return true
		}
	}
	return false
}

// Undo pops the most recent entry onto the redo stack
func (h *History) Undo(documentID uuid.UUID) (*Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stack := h.undo[documentID]
	if len(stack) == 0 {
		return nil, false
	}
	snap := stack[len(stack)-1]
	h.undo[documentID] = stack[:len(stack)-1]
	h.redo[documentID] = append(h.redo[documentID], snap)
	return snap, true
}

// Redo moves the most recently undone entry back onto the undo stack
func (h *History) Redo(documentID uuid.UUID) (*Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stack := h.redo[documentID]
	if len(stack) == 0 {
		return nil, false
	}
	snap := stack[len(stack)-1]
	h.redo[documentID] = stack[:len(stack)-1]
	h.undo[documentID] = append(h.undo[documentID], snap)
	return snap, true
}

// Depths reports the undo and redo stack sizes for a document
func (h *History) Depths(documentID uuid.UUID) (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo[documentID]), len(h.redo[documentID])
}
