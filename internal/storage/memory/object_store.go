package memory

import (
	"context"
	"sync"

	"portfolio-lab/internal/storage"
)

// ObjectStore is an in-memory implementation of storage.ObjectStore, used
// in tests and single-process deployments without S3.
type ObjectStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewObjectStore creates a new in-memory object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		data: make(map[string][]byte),
	}
}

// Put stores content under key, overwriting any previous object.
func (s *ObjectStore) Put(_ context.Context, key string, content []byte) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), content...)
	return nil
}

// Get retrieves the object at key. Returns ErrNotFound if not exists.
func (s *ObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return append([]byte(nil), content...), nil
}

// Delete removes the object at key. Deleting a missing key is not an error.
func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

var _ storage.ObjectStore = (*ObjectStore)(nil)
