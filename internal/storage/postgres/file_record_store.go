package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// FileRecordStore implements storage.FileRecordStore using PostgreSQL.
type FileRecordStore struct {
	pool *Pool
}

// NewFileRecordStore creates a new FileRecordStore.
func NewFileRecordStore(pool *Pool) *FileRecordStore {
	return &FileRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FileRecordStore = (*FileRecordStore)(nil)

// Insert adds a new file record. Returns ErrDuplicateKey if file_id exists
// or the batch already holds the same content fingerprint. The fingerprint
// uniqueness is enforced by a (batch_id, fingerprint) unique index.
func (s *FileRecordStore) Insert(ctx context.Context, f *domain.FileRecord) error {
	query := `
		INSERT INTO batch_files (
			file_id, batch_id, ticker, strategy, export_date,
			filename, object_key, fingerprint, rows_parsed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		f.FileID, f.BatchID, f.Ticker, f.Strategy, f.ExportDate,
		f.Filename, f.ObjectKey, f.Fingerprint, f.RowsParsed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

// GetByID retrieves a file record by its ID. Returns ErrNotFound if not exists.
func (s *FileRecordStore) GetByID(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	query := `
		SELECT file_id, batch_id, ticker, strategy, export_date,
		       filename, object_key, fingerprint, rows_parsed
		FROM batch_files
		WHERE file_id = $1
	`

	f, err := scanFileRecord(s.pool.QueryRow(ctx, query, fileID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get file record by id: %w", err)
	}
	return f, nil
}

// GetByBatchID retrieves all file records of a batch, ordered by filename ASC.
func (s *FileRecordStore) GetByBatchID(ctx context.Context, batchID string) ([]*domain.FileRecord, error) {
	query := `
		SELECT file_id, batch_id, ticker, strategy, export_date,
		       filename, object_key, fingerprint, rows_parsed
		FROM batch_files
		WHERE batch_id = $1
		ORDER BY filename ASC
	`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get file records by batch id: %w", err)
	}
	defer rows.Close()

	var records []*domain.FileRecord
	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file record row: %w", err)
		}
		records = append(records, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file record rows: %w", err)
	}

	return records, nil
}

// scanFileRecord scans a single row into a FileRecord.
func scanFileRecord(row pgx.Row) (*domain.FileRecord, error) {
	var f domain.FileRecord
	err := row.Scan(
		&f.FileID, &f.BatchID, &f.Ticker, &f.Strategy, &f.ExportDate,
		&f.Filename, &f.ObjectKey, &f.Fingerprint, &f.RowsParsed,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
