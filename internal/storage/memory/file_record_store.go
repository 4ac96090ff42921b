package memory

import (
	"context"
	"sort"
	"sync"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// FileRecordStore is an in-memory implementation of storage.FileRecordStore.
type FileRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FileRecord // keyed by file_id
}

// NewFileRecordStore creates a new in-memory file record store.
func NewFileRecordStore() *FileRecordStore {
	return &FileRecordStore{
		data: make(map[string]*domain.FileRecord),
	}
}

// Insert adds a new file record. Returns ErrDuplicateKey if file_id exists
// or the batch already holds the same content fingerprint.
func (s *FileRecordStore) Insert(_ context.Context, f *domain.FileRecord) error {
	if f == nil || f.FileID == "" || f.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.FileID]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.BatchID == f.BatchID && existing.Fingerprint == f.Fingerprint {
			return storage.ErrDuplicateKey
		}
	}

	copy := *f
	s.data[f.FileID] = &copy
	return nil
}

// GetByID retrieves a file record by its ID. Returns ErrNotFound if not exists.
func (s *FileRecordStore) GetByID(_ context.Context, fileID string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.data[fileID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *f
	return &copy, nil
}

// GetByBatchID retrieves all file records of a batch, ordered by filename ASC.
func (s *FileRecordStore) GetByBatchID(_ context.Context, batchID string) ([]*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FileRecord
	for _, f := range s.data {
		if f.BatchID == batchID {
			copy := *f
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Filename < result[j].Filename
	})

	return result, nil
}

var _ storage.FileRecordStore = (*FileRecordStore)(nil)
