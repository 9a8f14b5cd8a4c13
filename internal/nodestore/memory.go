package nodestore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and the CLI's dry-run
// mode. It copies payloads on the way in and out so callers cannot mutate
// stored state.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]map[string]interface{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string]map[string]interface{})}
}

func (s *MemoryStore) Get(_ context.Context, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPayload(payload), nil
}

func (s *MemoryStore) GetMulti(_ context.Context, ids []string) (map[string]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]interface{}, len(ids))
	for _, id := range ids {
		if payload, ok := s.nodes[id]; ok {
			out[id] = copyPayload(payload)
		}
	}
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, id string, payload map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[id] = copyPayload(payload)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.nodes, id)
	return nil
}

// copyPayload is a shallow copy; nested values are shared but top-level
// key sets stay independent, which is all the event core mutates.
func copyPayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
