// Package undo keeps pre-mutation snapshots so the most recent optimistic
// change can be reverted and re-synced. Stack semantics: repeated edits of
// the same kind each push their own entry and only the top is ever undone.
package undo

import (
	"sync"
	"time"
)

// Record is one pre-mutation snapshot.
type Record struct {
	Kind     string // mutation kind tag, e.g. "general", "section:landing"
	Path     string // document region the snapshot covers ("" = whole document)
	Snapshot any    // deep copy of the region taken before the mutation
	At       time.Time
}

// Stack holds undo records for the current session. It is not persisted;
// an undo crossing a process restart is simply unavailable. Growth is
// unbounded, matching the handful of entries a real editing session pushes.
type Stack struct {
	mu      sync.Mutex
	records []Record
}

// Push appends a record.
func (s *Stack) Push(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Pop removes and returns the most recent record, regardless of kind.
func (s *Stack) Pop() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	r := s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	return r, true
}

// Len reports the number of stacked records.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
