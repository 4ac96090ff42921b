package postgres

import (
	"context"
	"fmt"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// BatchStore implements storage.BatchStore using PostgreSQL.
type BatchStore struct {
	pool *Pool
}

// NewBatchStore creates a new BatchStore.
func NewBatchStore(pool *Pool) *BatchStore {
	return &BatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BatchStore = (*BatchStore)(nil)

// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
func (s *BatchStore) Insert(ctx context.Context, b *domain.Batch) error {
	query := `
		INSERT INTO upload_batches (batch_id, strategy_name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, b.BatchID, b.StrategyName, b.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
func (s *BatchStore) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	query := `
		SELECT batch_id, strategy_name, created_at
		FROM upload_batches
		WHERE batch_id = $1
	`

	var b domain.Batch
	err := s.pool.QueryRow(ctx, query, batchID).Scan(&b.BatchID, &b.StrategyName, &b.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get batch by id: %w", err)
	}
	return &b, nil
}

// GetAll retrieves all batches ordered by creation time ASC.
func (s *BatchStore) GetAll(ctx context.Context) ([]*domain.Batch, error) {
	query := `
		SELECT batch_id, strategy_name, created_at
		FROM upload_batches
		ORDER BY created_at ASC, batch_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all batches: %w", err)
	}
	defer rows.Close()

	var batches []*domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.BatchID, &b.StrategyName, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		batches = append(batches, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch rows: %w", err)
	}

	return batches, nil
}
