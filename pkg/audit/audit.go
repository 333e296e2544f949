// Package audit provides an in-memory, bounded audit trail of
// operator-facing fleet mutations. Unlike the file-backed audit log this
// package is adapted from, persistence across process restarts is an
// explicit non-goal here, so events live in a fixed-size ring buffer rather
// than on disk.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes an operator-facing mutation.
type EventType string

const (
	EventRegister    EventType = "register"
	EventAddCommands EventType = "add_commands"
	EventClearQueue  EventType = "clear_queue"
	EventPathfind    EventType = "pathfind"
	EventFindAndMine EventType = "find_and_mine"
	EventChatCommand EventType = "chat_command"
)

// Event is a single immutable audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	AgentID   string    `json:"agent_id,omitempty"`
	Summary   string    `json:"summary"`
}

// RingStore is a fixed-capacity, append-only audit trail. Once full, the
// oldest event is evicted to make room for the newest. Safe for concurrent
// use.
type RingStore struct {
	mu       sync.Mutex
	capacity int
	events   []Event
	next     int
	filled   bool
	clock    func() time.Time
}

// NewRingStore creates a ring buffer holding at most capacity events. A
// capacity of 0 or less is treated as 1.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingStore{
		capacity: capacity,
		events:   make([]Event, capacity),
		clock:    time.Now,
	}
}

// Append records a new event, evicting the oldest if the ring is full.
func (s *RingStore) Append(eventType EventType, agentID, summary string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Event{
		ID:        uuid.NewString(),
		Timestamp: s.clock(),
		Type:      eventType,
		AgentID:   agentID,
		Summary:   summary,
	}
	s.events[s.next] = e
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.filled = true
	}
	return e
}

// Recent returns every stored event, oldest first.
func (s *RingStore) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled {
		out := make([]Event, s.next)
		copy(out, s.events[:s.next])
		return out
	}

	out := make([]Event, s.capacity)
	copy(out, s.events[s.next:])
	copy(out[s.capacity-s.next:], s.events[:s.next])
	return out
}

// Len reports how many events are currently stored (capped at capacity).
func (s *RingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled {
		return s.capacity
	}
	return s.next
}
