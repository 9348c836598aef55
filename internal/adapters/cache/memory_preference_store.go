package cache

import (
	"context"
	"sync"
)

// MemoryPreferenceStore keeps preferences in process. Used for tests and
// single-instance local runs; contents are lost on restart.
type MemoryPreferenceStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{m: make(map[string]string)}
}

func (s *MemoryPreferenceStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[scope+"|"+key]
	return v, ok, nil
}

func (s *MemoryPreferenceStore) Set(ctx context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[scope+"|"+key] = value
	return nil
}

func (s *MemoryPreferenceStore) Remove(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, scope+"|"+key)
	return nil
}
