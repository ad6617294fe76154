package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrInvalidRecord is returned when a record cannot be stored as given.
	ErrInvalidRecord = errors.New("invalid diagnostic record")

	// ErrDuplicate is returned when a record already exists at the path.
	ErrDuplicate = errors.New("diagnostic record already exists")
)

// Store persists one diagnostic value under collection/path.
type Store interface {
	Store(ctx context.Context, collection, path string, value any) error
}

// ValidateKey checks the collection and path shared by every backend.
func ValidateKey(collection, path string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidRecord)
	}
	return nil
}

// NopStore discards every record.
type NopStore struct{}

// Store implements Store.
func (NopStore) Store(context.Context, string, string, any) error { return nil }

// MemoryStore keeps records in memory as encoded JSON. It is meant for tests
// and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]json.RawMessage)}
}

// Store implements Store. Writing an existing path replaces it.
func (m *MemoryStore) Store(ctx context.Context, collection, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(collection, path); err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memoryKey(collection, path)] = encoded
	return nil
}

// Get returns the stored JSON for collection/path.
func (m *MemoryStore) Get(collection, path string) (json.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[memoryKey(collection, path)]
	return v, ok
}

// Len reports how many records are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func memoryKey(collection, path string) string {
	return collection + "/" + path
}
