package eventlog

import (
	"context"
	"sync"

	"github.com/kilianp07/bikesim/core/events"
)

// MemoryStore keeps events in a slice. It is the default backend.
type MemoryStore struct {
	mu     sync.RWMutex
	events []events.Event
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, e events.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []events.Event
	for _, e := range s.events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if q.Match(e) {
			res = append(res, e)
			if q.full(len(res)) {
				break
			}
		}
	}
	return res, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStore) Close() error { return nil }
