// Package secure provides memory-safe storage for secret values held in
// process, used by the in-memory fallback of the secure value store.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds a secret value encrypted at rest in memory. It wraps
// memguard.Enclave, which encrypts the data and attempts to mlock the
// backing pages so the plaintext cannot be swapped to disk.
type Buffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewBuffer creates a protected buffer from a secret string. The input is
// immediately copied into a protected memory region. memguard rejects
// zero-length buffers, so an empty value is stored as a nil enclave.
func NewBuffer(value string) *Buffer {
	if value == "" {
		return &Buffer{}
	}
	return &Buffer{enclave: memguard.NewEnclave([]byte(value))}
}

// Reveal decrypts the buffer and returns the plaintext as a string.
// Returns an empty string after Destroy.
func (b *Buffer) Reveal() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed || b.enclave == nil {
		return "", nil
	}

	locked, err := b.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return locked.String(), nil
}

// Destroy marks the buffer as destroyed and prevents further use.
// Idempotent. The encrypted enclave data is safe to leave for the garbage
// collector; callers wanting a full wipe at exit use memguard.Purge.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
