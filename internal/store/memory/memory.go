package memory

import (
	"context"
	"encoding/json"
	"sync"

	"kasirlokal/backend/internal/store"
)

// Store keeps slot documents as encoded JSON so callers never share memory
// with what was saved.
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.slots[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, store.Wrap("load", key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.SaveMany(ctx, map[string]any{key: value})
}

func (s *Store) SaveMany(_ context.Context, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for _, key := range store.SortedKeys(values) {
		raw, err := json.Marshal(values[key])
		if err != nil {
			return store.Wrap("save", key, err)
		}
		encoded[key] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, raw := range encoded {
		s.slots[key] = raw
	}
	return nil
}

// Raw returns the stored document for key, mainly for tests and export tooling.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.slots[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true
}

func (s *Store) Close() error {
	return nil
}
