package memory

import (
	"context"
	"sort"
	"sync"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PortfolioRun // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.PortfolioRun),
	}
}

// Insert adds a new run snapshot. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.PortfolioRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.PortfolioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyRun(r), nil
}

// GetByBatchID retrieves all runs of a batch, ordered by creation time ASC.
func (s *RunStore) GetByBatchID(_ context.Context, batchID string) ([]*domain.PortfolioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PortfolioRun
	for _, r := range s.data {
		if r.BatchID == batchID {
			result = append(result, copyRun(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// copyRun deep-copies the run so callers cannot mutate stored state.
func copyRun(r *domain.PortfolioRun) *domain.PortfolioRun {
	copy := *r
	if r.KPIs != nil {
		copy.KPIs = make(domain.KPIMap, len(r.KPIs))
		for k, v := range r.KPIs {
			copy.KPIs[k] = v
		}
	}
	if r.Sections != nil {
		copy.Sections = make([]domain.Section, len(r.Sections))
		for i, sec := range r.Sections {
			secCopy := sec
			secCopy.Metrics = append([]domain.Metric(nil), sec.Metrics...)
			copy.Sections[i] = secCopy
		}
	}
	copy.EquityCurve = append([]domain.CurvePoint(nil), r.EquityCurve...)
	copy.TradesTable = append([]domain.ListingRow(nil), r.TradesTable...)
	return &copy
}

var _ storage.RunStore = (*RunStore)(nil)
