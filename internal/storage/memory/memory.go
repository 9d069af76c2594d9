package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"kantong/internal/storage"
)

// Store is an in-process KV backend. Prefix scans return keys in insertion
// order; overwriting a key keeps its original position.
type Store struct {
	mu    sync.Mutex
	keys  []string
	items map[string][]byte
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.items[key] = slices.Clone(value)
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return nil
	}
	delete(s.items, key)
	if i := slices.Index(s.keys, key); i >= 0 {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	return nil
}

func (s *Store) GetByPrefix(_ context.Context, prefix string) ([]storage.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Entry
	for _, k := range s.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.Entry{Key: k, Value: slices.Clone(s.items[k])})
		}
	}
	return out, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
