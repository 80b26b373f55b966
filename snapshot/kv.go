// Package snapshot implements the local persistence adapter for the cart.
//
// The cart's line list is serialized into a single versioned key-value slot
// and always overwritten wholesale on save; there are no partial writes.
// Backends are pluggable through the KV interface (file, Redis, S3).
package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key has no stored value.
// Backends return it so the adapter can treat absence as an empty cart.
var ErrNotFound = errors.New("snapshot: key not found")

// KV abstracts the durable key-value slot backing the snapshot.
// Implementations must overwrite the value wholesale on Set.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryKV is an in-memory KV for testing.
type MemoryKV struct {
	values map[string][]byte

	// FailSets forces Set to fail when true, simulating storage that is
	// full or disabled.
	FailSets bool
	// FailGets forces Get to fail when true, simulating an unreachable
	// backend.
	FailGets bool
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.FailGets {
		return nil, errors.New("memory kv: get disabled")
	}
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements KV.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	if m.FailSets {
		return errors.New("memory kv: set disabled")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[key] = cp
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

// Has reports whether key currently holds a value.
func (m *MemoryKV) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Corrupt overwrites key with bytes that will not decode.
func (m *MemoryKV) Corrupt(key string) {
	m.values[key] = []byte{0xc1, 0xff, 0x00, 0x13, 0x37}
}

// Verify MemoryKV implements KV.
var _ KV = (*MemoryKV)(nil)
