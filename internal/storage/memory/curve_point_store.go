package memory

import (
	"context"
	"sort"
	"sync"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// CurvePointStore is an in-memory implementation of storage.CurvePointStore.
type CurvePointStore struct {
	mu   sync.RWMutex
	data map[string][]domain.CurvePoint // keyed by run_id|curve
}

// NewCurvePointStore creates a new in-memory curve point store.
func NewCurvePointStore() *CurvePointStore {
	return &CurvePointStore{
		data: make(map[string][]domain.CurvePoint),
	}
}

// InsertBulk adds the aligned curve of a run. Fails the entire batch on
// duplicate (run_id, curve, timestamp).
func (s *CurvePointStore) InsertBulk(_ context.Context, runID, curve string, points []domain.CurvePoint) error {
	if runID == "" || curve == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := runID + "|" + curve
	existing := s.data[key]

	seen := make(map[int64]struct{}, len(existing)+len(points))
	for _, p := range existing {
		seen[p.Timestamp.UnixNano()] = struct{}{}
	}
	for _, p := range points {
		ts := p.Timestamp.UnixNano()
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	s.data[key] = append(existing, points...)
	return nil
}

// GetByRunID retrieves the named curve of a run, ordered by timestamp ASC.
func (s *CurvePointStore) GetByRunID(_ context.Context, runID, curve string) ([]domain.CurvePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[runID+"|"+curve]
	result := append([]domain.CurvePoint(nil), points...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

var _ storage.CurvePointStore = (*CurvePointStore)(nil)
