package keystore

import (
	"context"
	"sync"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/secure"
)

// MemoryStore is the transient in-process value table used when the
// secure backend is unavailable, and directly in tests. Values are held
// in memguard enclaves so plaintext is encrypted at rest in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]*secure.Buffer
}

// NewMemory creates an empty in-memory value store.
func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]*secure.Buffer)}
}

// Set stores a value, replacing and destroying any existing buffer.
func (s *MemoryStore) Set(_ context.Context, id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.values[id]; ok {
		old.Destroy()
	}
	s.values[id] = secure.NewBuffer(value)
	return nil
}

// Get returns the stored value, or errors.ErrValueNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (string, error) {
	s.mu.RLock()
	buf, ok := s.values[id]
	s.mu.RUnlock()

	if !ok {
		return "", lberrors.ErrValueNotFound
	}
	value, err := buf.Reveal()
	if err != nil {
		return "", &lberrors.BackendError{Op: "get", ID: id, Err: err}
	}
	return value, nil
}

// Delete removes a value. Deleting an absent id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.values[id]; ok {
		buf.Destroy()
		delete(s.values, id)
	}
	return nil
}

// Mode reports ModeMemory.
func (s *MemoryStore) Mode() Mode {
	return ModeMemory
}

// Len returns the number of stored values.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

var _ Store = (*MemoryStore)(nil)
