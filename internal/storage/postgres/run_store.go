package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL. KPIs, sections,
// the equity curve and the trade listing are stored as JSONB snapshots; the
// infinity sentinel survives round-trips through domain.MetricValue.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run snapshot. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.PortfolioRun) error {
	kpis, err := json.Marshal(r.KPIs)
	if err != nil {
		return fmt.Errorf("marshal run kpis: %w", err)
	}
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return fmt.Errorf("marshal run sections: %w", err)
	}
	curve, err := json.Marshal(r.EquityCurve)
	if err != nil {
		return fmt.Errorf("marshal run equity curve: %w", err)
	}
	trades, err := json.Marshal(r.TradesTable)
	if err != nil {
		return fmt.Errorf("marshal run trades table: %w", err)
	}

	query := `
		INSERT INTO portfolio_runs (
			run_id, batch_id, currency, total_capital,
			date_start, date_end, created_at,
			kpis, sections, equity_curve, trades_table
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.BatchID, r.Currency, r.TotalCapital,
		r.DateStart, r.DateEnd, r.CreatedAt,
		kpis, sections, curve, trades,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert portfolio run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.PortfolioRun, error) {
	query := `
		SELECT run_id, batch_id, currency, total_capital,
		       date_start, date_end, created_at,
		       kpis, sections, equity_curve, trades_table
		FROM portfolio_runs
		WHERE run_id = $1
	`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get portfolio run by id: %w", err)
	}
	return r, nil
}

// GetByBatchID retrieves all runs of a batch, ordered by creation time ASC.
func (s *RunStore) GetByBatchID(ctx context.Context, batchID string) ([]*domain.PortfolioRun, error) {
	query := `
		SELECT run_id, batch_id, currency, total_capital,
		       date_start, date_end, created_at,
		       kpis, sections, equity_curve, trades_table
		FROM portfolio_runs
		WHERE batch_id = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get portfolio runs by batch id: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PortfolioRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan portfolio run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row into a PortfolioRun, decoding the JSONB columns.
func scanRun(row pgx.Row) (*domain.PortfolioRun, error) {
	var r domain.PortfolioRun
	var kpis, sections, curve, trades []byte

	err := row.Scan(
		&r.RunID, &r.BatchID, &r.Currency, &r.TotalCapital,
		&r.DateStart, &r.DateEnd, &r.CreatedAt,
		&kpis, &sections, &curve, &trades,
	)
	if err != nil {
		return nil, err
	}

	if len(kpis) > 0 {
		if err := json.Unmarshal(kpis, &r.KPIs); err != nil {
			return nil, fmt.Errorf("unmarshal run kpis: %w", err)
		}
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &r.Sections); err != nil {
			return nil, fmt.Errorf("unmarshal run sections: %w", err)
		}
	}
	if len(curve) > 0 {
		if err := json.Unmarshal(curve, &r.EquityCurve); err != nil {
			return nil, fmt.Errorf("unmarshal run equity curve: %w", err)
		}
	}
	if len(trades) > 0 {
		if err := json.Unmarshal(trades, &r.TradesTable); err != nil {
			return nil, fmt.Errorf("unmarshal run trades table: %w", err)
		}
	}

	return &r, nil
}
