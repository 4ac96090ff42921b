package memory

import (
	"context"
	"sort"
	"sync"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// BatchStore is an in-memory implementation of storage.BatchStore.
type BatchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Batch // keyed by batch_id
}

// NewBatchStore creates a new in-memory batch store.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		data: make(map[string]*domain.Batch),
	}
}

// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
func (s *BatchStore) Insert(_ context.Context, b *domain.Batch) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BatchID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *b
	s.data[b.BatchID] = &copy
	return nil
}

// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
func (s *BatchStore) GetByID(_ context.Context, batchID string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *b
	return &copy, nil
}

// GetAll retrieves all batches ordered by creation time ASC.
func (s *BatchStore) GetAll(_ context.Context) ([]*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Batch
	for _, b := range s.data {
		copy := *b
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

var _ storage.BatchStore = (*BatchStore)(nil)
