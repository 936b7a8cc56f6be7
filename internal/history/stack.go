// Package history implements the linear undo/redo stack over immutable
// snapshots. Every authoritative state transition is committed as a full
// snapshot; undo and redo move a pointer through the sequence without
// creating new entries.
package history

import (
	"errors"
	stdsync "sync"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Sentinel errors for invalid stack operations.
var (
	ErrNothingToUndo = errors.New("history: nothing to undo")
	ErrNothingToRedo = errors.New("history: nothing to redo")
	ErrNotHydrated   = errors.New("history: session not hydrated")
)

// Transition describes a pointer move: From was current before the move,
// To is current after it. Callers push the diff between them to the remote.
type Transition struct {
	From *model.Snapshot
	To   *model.Snapshot
}

// Stack is a pointer-based sequence of snapshots. Create one with New.
// Safe for concurrent use.
type Stack struct {
	mu       stdsync.Mutex
	entries  []*model.Snapshot
	index    int
	hydrated bool
}

// New returns an empty, unhydrated stack.
func New() *Stack {
	return &Stack{index: -1}
}

// Hydrate resets the stack to a single entry, the reconciled starting
// snapshot, and enables commits.
func (s *Stack) Hydrate(initial *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []*model.Snapshot{initial}
	s.index = 0
	s.hydrated = true
}

// Reset discards all entries and returns the stack to the unhydrated state.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.index = -1
	s.hydrated = false
}

// Hydrated reports whether initial hydration has completed.
func (s *Stack) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated
}

// Commit truncates any redo branch and appends snap as the new current
// entry. Before hydration it is a no-op and returns false.
func (s *Stack) Commit(snap *model.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		return false
	}

	// Clip capacity so the append never writes into a discarded redo slot
	// still referenced by an earlier slice header.
	s.entries = append(s.entries[:s.index+1:s.index+1], snap)
	s.index = len(s.entries) - 1

	return true
}

// Undo moves the pointer back one entry. The caller applies t.To as current
// state without committing it.
func (s *Stack) Undo() (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		return Transition{}, ErrNotHydrated
	}

	if s.index <= 0 {
		return Transition{}, ErrNothingToUndo
	}

	from := s.entries[s.index]
	s.index--

	return Transition{From: from, To: s.entries[s.index]}, nil
}

// Redo moves the pointer forward one entry.
func (s *Stack) Redo() (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		return Transition{}, ErrNotHydrated
	}

	if s.index >= len(s.entries)-1 {
		return Transition{}, ErrNothingToRedo
	}

	from := s.entries[s.index]
	s.index++

	return Transition{From: from, To: s.entries[s.index]}, nil
}

// CanUndo reports whether Undo would succeed.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated && s.index > 0
}

// CanRedo reports whether Redo would succeed.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated && s.index >= 0 && s.index < len(s.entries)-1
}

// Current returns the snapshot at the pointer, or nil when empty.
func (s *Stack) Current() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index < 0 || s.index >= len(s.entries) {
		return nil
	}

	return s.entries[s.index]
}

// Len returns the number of entries, including the redo branch.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Index returns the pointer position, -1 when empty.
func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index
}

// Entries returns the snapshots in order. The slice is a copy; the
// snapshots themselves are immutable and shared.
func (s *Stack) Entries() []*model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Snapshot, len(s.entries))
	copy(out, s.entries)

	return out
}
