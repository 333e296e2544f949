package audit

import (
	"testing"
	"time"
)

func TestAppend_RecordsEventFields(t *testing.T) {
	s := NewRingStore(10)
	e := s.Append(EventPathfind, "1", "pathfind to 3 0 0")

	if e.ID == "" {
		t.Error("expected a generated event id")
	}
	if e.Type != EventPathfind || e.AgentID != "1" || e.Summary != "pathfind to 3 0 0" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestRecent_OrderedOldestFirst(t *testing.T) {
	s := NewRingStore(10)
	s.Append(EventRegister, "1", "registered")
	s.Append(EventAddCommands, "1", "added commands")
	s.Append(EventClearQueue, "1", "cleared queue")

	events := s.Recent()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != EventRegister || events[2].Type != EventClearQueue {
		t.Errorf("events not in insertion order: %+v", events)
	}
}

func TestRingStore_EvictsOldestWhenFull(t *testing.T) {
	s := NewRingStore(3)
	s.Append(EventRegister, "1", "first")
	s.Append(EventRegister, "2", "second")
	s.Append(EventRegister, "3", "third")
	s.Append(EventRegister, "4", "fourth")

	events := s.Recent()
	if len(events) != 3 {
		t.Fatalf("expected ring capped at 3 events, got %d", len(events))
	}
	if events[0].Summary != "second" {
		t.Errorf("expected oldest surviving event to be 'second', got %q", events[0].Summary)
	}
	if events[2].Summary != "fourth" {
		t.Errorf("expected newest event to be 'fourth', got %q", events[2].Summary)
	}
}

func TestLen_CapsAtCapacity(t *testing.T) {
	s := NewRingStore(2)
	if s.Len() != 0 {
		t.Fatalf("expected empty ring to have length 0, got %d", s.Len())
	}
	s.Append(EventRegister, "1", "a")
	if s.Len() != 1 {
		t.Fatalf("expected length 1, got %d", s.Len())
	}
	s.Append(EventRegister, "2", "b")
	s.Append(EventRegister, "3", "c")
	if s.Len() != 2 {
		t.Fatalf("expected length capped at capacity 2, got %d", s.Len())
	}
}

func TestAppend_TimestampsAreMonotonicNonDecreasing(t *testing.T) {
	s := NewRingStore(5)
	first := s.Append(EventRegister, "1", "a")
	time.Sleep(time.Millisecond)
	second := s.Append(EventRegister, "1", "b")

	if second.Timestamp.Before(first.Timestamp) {
		t.Error("expected timestamps to be non-decreasing across appends")
	}
}
