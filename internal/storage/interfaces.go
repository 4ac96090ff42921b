// Package storage defines the persistence interfaces for upload batches,
// file records, portfolio runs and aligned curve points, plus the shared
// sentinel errors implementations return.
package storage

import (
	"context"

	"portfolio-lab/internal/domain"
)

// BatchStore provides access to upload_batches storage.
type BatchStore interface {
	// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
	Insert(ctx context.Context, b *domain.Batch) error

	// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, batchID string) (*domain.Batch, error)

	// GetAll retrieves all batches ordered by creation time ASC.
	GetAll(ctx context.Context) ([]*domain.Batch, error)
}

// FileRecordStore provides access to batch_files storage.
type FileRecordStore interface {
	// Insert adds a new file record. Returns ErrDuplicateKey if file_id
	// exists or the batch already holds the same content fingerprint.
	Insert(ctx context.Context, f *domain.FileRecord) error

	// GetByID retrieves a file record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, fileID string) (*domain.FileRecord, error)

	// GetByBatchID retrieves all file records of a batch, ordered by filename ASC.
	GetByBatchID(ctx context.Context, batchID string) ([]*domain.FileRecord, error)
}

// RunStore provides access to portfolio_runs storage.
type RunStore interface {
	// Insert adds a new run snapshot. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.PortfolioRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.PortfolioRun, error)

	// GetByBatchID retrieves all runs of a batch, ordered by creation time ASC.
	GetByBatchID(ctx context.Context, batchID string) ([]*domain.PortfolioRun, error)
}

// CurvePointStore provides access to aligned portfolio curve storage.
type CurvePointStore interface {
	// InsertBulk adds the aligned curve of a run. Fails the entire batch
	// on duplicate (run_id, curve, timestamp).
	InsertBulk(ctx context.Context, runID, curve string, points []domain.CurvePoint) error

	// GetByRunID retrieves the named curve of a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID, curve string) ([]domain.CurvePoint, error)
}

// Curve names persisted per run in the CurvePointStore.
const (
	CurveEquity   = "equity"
	CurveBuyHold  = "buy_hold"
	CurveDrawdown = "drawdown"
)

// ObjectStore persists raw uploaded CSV payloads under opaque keys.
type ObjectStore interface {
	// Put stores content under key, overwriting any previous object.
	Put(ctx context.Context, key string, content []byte) error

	// Get retrieves the object at key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
