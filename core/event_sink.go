package core

import (
	"context"
	"sync"
)

// MemoryEventSink buffers emitted events in order. It backs tests and feeds
// the ledger flush job when no sql ledger is attached.
type MemoryEventSink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventSink() *MemoryEventSink {
	return &MemoryEventSink{}
}

func (s *MemoryEventSink) Emit(ctx context.Context, event Event) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *MemoryEventSink) Events() []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// BySubject filters the buffered events on the primary key field.
func (s *MemoryEventSink) BySubject(subject string) []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, event := range s.events {
		if event.Subject == subject {
			out = append(out, event)
		}
	}
	return out
}

// Drain returns the buffered events and resets the buffer. The ledger flush
// job uses it to move events into the sql audit store in batches.
func (s *MemoryEventSink) Drain() []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}
