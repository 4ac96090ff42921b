package clickhouse

import (
	"context"
	"fmt"
	"time"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// CurvePointStore implements storage.CurvePointStore using ClickHouse.
type CurvePointStore struct {
	conn *Conn
}

// NewCurvePointStore creates a new CurvePointStore.
func NewCurvePointStore(conn *Conn) *CurvePointStore {
	return &CurvePointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CurvePointStore = (*CurvePointStore)(nil)

// InsertBulk adds the aligned curve of a run. Fails the entire batch on
// duplicate (run_id, curve, timestamp). MergeTree does not enforce
// uniqueness at insert time, so duplicates are checked explicitly first.
func (s *CurvePointStore) InsertBulk(ctx context.Context, runID, curve string, points []domain.CurvePoint) error {
	if runID == "" || curve == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		ts := p.Timestamp.UnixNano()
		if _, exists := seen[ts]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ts] = struct{}{}
	}

	count, err := s.existingCount(ctx, runID, curve)
	if err != nil {
		return fmt.Errorf("check existing curve: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_curves (run_id, curve, timestamp_ms, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(runID, curve, uint64(p.Timestamp.UnixMilli()), p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves the named curve of a run, ordered by timestamp ASC.
func (s *CurvePointStore) GetByRunID(ctx context.Context, runID, curve string) ([]domain.CurvePoint, error) {
	query := `
		SELECT timestamp_ms, value
		FROM portfolio_curves
		WHERE run_id = ? AND curve = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, curve)
	if err != nil {
		return nil, fmt.Errorf("query curve by run id: %w", err)
	}
	defer rows.Close()

	var points []domain.CurvePoint
	for rows.Next() {
		var timestampMs uint64
		var value float64
		if err := rows.Scan(&timestampMs, &value); err != nil {
			return nil, fmt.Errorf("scan curve point row: %w", err)
		}
		points = append(points, domain.CurvePoint{
			Timestamp: time.UnixMilli(int64(timestampMs)).UTC(),
			Value:     value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve point rows: %w", err)
	}

	return points, nil
}

func (s *CurvePointStore) existingCount(ctx context.Context, runID, curve string) (uint64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM portfolio_curves WHERE run_id = ? AND curve = ?`,
		runID, curve,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
