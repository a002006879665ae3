package memory

import (
	"context"
	"sync"

	audit "paycustom/pkg/platform/audit"
)

// DefaultCapacity is used when NewInMemoryStore is given a non-positive size.
const DefaultCapacity = 1024

// InMemoryStore retains the most recent events in a fixed-size ring. Used in
// tests and when no Kafka brokers are configured; once full, each append
// evicts the oldest event.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []audit.Event
	start   int
	evicted int64
}

func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryStore{events: make([]audit.Event, 0, capacity)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) < cap(s.events) {
		s.events = append(s.events, event)
		return nil
	}
	s.events[s.start] = event
	s.start = (s.start + 1) % len(s.events)
	s.evicted++
	return nil
}

// ListRecent returns up to limit events, most recent first. A non-positive
// limit returns everything retained.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]audit.Event, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, s.events[(s.start+n-i)%n])
	}
	return out, nil
}

// Evicted returns how many events were overwritten to stay within capacity.
func (s *InMemoryStore) Evicted() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}
