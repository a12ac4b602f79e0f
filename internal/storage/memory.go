package storage

import (
	"sync"
)

// MemoryStore is an ephemeral in-process blob store. Used by tests and by
// the memory driver; nothing survives the process.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// writes counts Set calls, useful for asserting write coalescing.
	writes map[string]int
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		blobs:  make(map[string][]byte),
		writes: make(map[string]int),
	}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), value...)
	s.writes[key]++
	return nil
}

// Writes returns how many times Set has been called for key.
func (s *MemoryStore) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

func (s *MemoryStore) Close() error {
	return nil
}
