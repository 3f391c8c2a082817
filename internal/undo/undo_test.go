package undo

import (
	"testing"
	"time"
)

func TestPopReturnsMostRecentAcrossKinds(t *testing.T) {
	var s Stack
	s.Push(Record{Kind: "general", Snapshot: "g1", At: time.Now()})
	s.Push(Record{Kind: "section:landing", Snapshot: "l1", At: time.Now()})
	s.Push(Record{Kind: "general", Snapshot: "g2", At: time.Now()})

	r, ok := s.Pop()
	if !ok || r.Kind != "general" || r.Snapshot != "g2" {
		t.Errorf("pop = %+v %v", r, ok)
	}
	r, ok = s.Pop()
	if !ok || r.Kind != "section:landing" {
		t.Errorf("pop = %+v %v", r, ok)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestPopEmpty(t *testing.T) {
	var s Stack
	if _, ok := s.Pop(); ok {
		t.Error("pop of empty stack should report none")
	}
}

func TestRepeatedKindEachGetOwnEntry(t *testing.T) {
	var s Stack
	for i := 0; i < 5; i++ {
		s.Push(Record{Kind: "general", Snapshot: i})
	}
	if s.Len() != 5 {
		t.Errorf("len = %d, want 5 (no deduplication)", s.Len())
	}
	if r, _ := s.Pop(); r.Snapshot != 4 {
		t.Errorf("top = %v, want latest push", r.Snapshot)
	}
}
