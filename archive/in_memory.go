package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/zacbakerr/werewolf/core"
)

// InMemoryStore is a process-local Sink useful for tests, examples and
// offline runs. Events are grouped by agent name.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]core.GameHistoryEvent // agent -> events
}

// NewInMemoryStore returns an empty in-memory archive.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]core.GameHistoryEvent)}
}

// Append stores ev under its agent.
func (s *InMemoryStore) Append(_ context.Context, ev core.GameHistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.Agent] = append(s.events[ev.Agent], ev)
	return nil
}

// Events returns a sorted copy of the events stored for agent.
func (s *InMemoryStore) Events(_ context.Context, agent string) ([]core.GameHistoryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.GameHistoryEvent, len(s.events[agent]))
	copy(out, s.events[agent])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Agents returns the names with at least one stored event.
func (s *InMemoryStore) Agents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.events))
	for a := range s.events {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
