// Package metadata is the attribute sidecar: opaque key/value entries
// attached to a 32-byte namespace hash, typically an asset's metadata hash
// or a lease certificate id. The ledger never interprets the values.
package metadata

import (
	"errors"
	"sync"
)

// ErrAttributeNotFound is returned when a namespace or key has no entry.
var ErrAttributeNotFound = errors.New("metadata: attribute not found")

// Entry is one attribute under a namespace.
type Entry struct {
	Key   string
	Value []byte
}

// Store reads and writes namespaced attributes.
type Store interface {
	// SetAttributes upserts entries under the namespace.
	SetAttributes(namespace [32]byte, entries []Entry) error

	// GetAttribute returns the value stored under namespace/key.
	GetAttribute(namespace [32]byte, key string) ([]byte, error)
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu    sync.Mutex
	attrs map[[32]byte]map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attrs: make(map[[32]byte]map[string][]byte)}
}

// SetAttributes implements Store. Later entries for the same key win.
func (s *MemoryStore) SetAttributes(namespace [32]byte, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.attrs[namespace]
	if !ok {
		bucket = make(map[string][]byte)
		s.attrs[namespace] = bucket
	}
	for _, e := range entries {
		bucket[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

// GetAttribute implements Store.
func (s *MemoryStore) GetAttribute(namespace [32]byte, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.attrs[namespace]
	if !ok {
		return nil, ErrAttributeNotFound
	}
	value, ok := bucket[key]
	if !ok {
		return nil, ErrAttributeNotFound
	}
	return append([]byte(nil), value...), nil
}
