// Package runner coordinates portfolio run execution.
// It coordinates: load batch → parse files → normalize trades → equity
// curves → alignment → analytics → report → persistence.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"portfolio-lab/internal/analytics"
	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/equity"
	"portfolio-lab/internal/ingest"
	"portfolio-lab/internal/normalize"
	"portfolio-lab/internal/observability"
	"portfolio-lab/internal/report"
	"portfolio-lab/internal/storage"
)

// ErrEmptyBatch is returned when a run is requested for a batch without files.
var ErrEmptyBatch = errors.New("batch has no files")

// Runner executes portfolio runs against a batch of uploaded exports.
type Runner struct {
	batchStore storage.BatchStore
	fileStore  storage.FileRecordStore
	runStore   storage.RunStore
	curveStore storage.CurvePointStore
	objects    storage.ObjectStore

	totalCapitalDefault float64
	currencyDefault     string
	riskFreeRate        float64

	verbose bool
}

// Options for creating Runner.
type Options struct {
	// Required stores
	BatchStore      storage.BatchStore
	FileRecordStore storage.FileRecordStore
	RunStore        storage.RunStore
	CurvePointStore storage.CurvePointStore
	ObjectStore     storage.ObjectStore

	// Defaults applied when the request leaves them unset
	TotalCapitalDefault float64
	CurrencyDefault     string
	RiskFreeRate        float64

	Verbose bool
}

// New creates a new Runner.
func New(opts Options) *Runner {
	totalCapital := opts.TotalCapitalDefault
	if totalCapital <= 0 {
		totalCapital = 100000
	}
	currency := opts.CurrencyDefault
	if currency == "" {
		currency = "USD"
	}

	return &Runner{
		batchStore:          opts.BatchStore,
		fileStore:           opts.FileRecordStore,
		runStore:            opts.RunStore,
		curveStore:          opts.CurvePointStore,
		objects:             opts.ObjectStore,
		totalCapitalDefault: totalCapital,
		currencyDefault:     currency,
		riskFreeRate:        opts.RiskFreeRate,
		verbose:             opts.Verbose,
	}
}

// Request describes one portfolio run.
type Request struct {
	BatchID string

	// TotalCapital is split equally across the batch's files. Zero uses
	// the configured default.
	TotalCapital float64

	// Currency labels the run; it never rescales values. Empty uses the
	// configured default.
	Currency string

	// DateRange filters trades by exit time and listing rows by their own
	// timestamp, bounds inclusive.
	DateRange domain.DateRange
}

// Result contains the finished report and its persisted snapshot.
type Result struct {
	RunID  string
	Report *domain.RunReport
	Run    *domain.PortfolioRun
}

// instrumentResult is the per-file output of the parallel parse phase.
type instrumentResult struct {
	series  domain.EquitySeries
	listing []domain.ListingRow
}

// Run executes a portfolio run for the requested batch.
// Phases:
//  1. Load the batch and its file records
//  2. Parse and normalize every instrument concurrently
//  3. Align per-instrument curves and compute analytics
//  4. Assemble the report and persist the run snapshot
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	// Phase 1: resolve the batch.
	r.log("Phase 1: Loading batch %s...", req.BatchID)
	if _, err := r.batchStore.GetByID(ctx, req.BatchID); err != nil {
		return nil, fmt.Errorf("load batch %s: %w", req.BatchID, err)
	}

	files, err := r.fileStore.GetByBatchID(ctx, req.BatchID)
	if err != nil {
		return nil, fmt.Errorf("load batch files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}
	r.log("  Found %d files", len(files))

	totalCapital := req.TotalCapital
	if totalCapital <= 0 {
		totalCapital = r.totalCapitalDefault
	}
	currency := req.Currency
	if currency == "" {
		currency = r.currencyDefault
	}
	perInstrumentCapital := totalCapital / float64(len(files))

	// Phase 2: parse and normalize instruments concurrently. Results keep
	// file order so runs are deterministic.
	r.log("Phase 2: Normalizing %d instruments...", len(files))
	results := make([]instrumentResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			res, err := r.processInstrument(gctx, file, perInstrumentCapital, req.DateRange)
			if err != nil {
				return fmt.Errorf("instrument %s: %w", file.Ticker, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordRun("error", time.Since(started).Seconds(), 0, len(files))
		return nil, err
	}

	series := make([]domain.EquitySeries, len(results))
	var allTrades []*domain.TradeRecord
	var tradesTable []domain.ListingRow
	for i, res := range results {
		series[i] = res.series
		allTrades = append(allTrades, res.series.Trades...)
		tradesTable = append(tradesTable, res.listing...)
	}

	// Phase 3: align and compute analytics.
	r.log("Phase 3: Aligning curves (%d trades total)...", len(allTrades))
	portfolioCurve := equity.AlignAndSum(series)
	drawdown := analytics.DrawdownSeries(portfolioCurve)
	buyHold := analytics.BuyHoldCurve(portfolioCurve)

	kpis := analytics.SummarizeKPIs(allTrades, portfolioCurve)
	annualized, avgDays, totalDays := analytics.Annualized(allTrades)
	kpis[analytics.KeyAnnualizedReturnPct] = domain.MetricValue(annualized)
	kpis[analytics.KeyAvgTradeDuration] = domain.MetricValue(avgDays)
	kpis[analytics.KeyTotalTradeDays] = domain.MetricValue(totalDays)

	sections := report.BuildSections(kpis, allTrades, portfolioCurve, r.riskFreeRate)

	runReport := &domain.RunReport{
		EquityCurve: portfolioCurve,
		BuyHold:     buyHold,
		Drawdown:    drawdown,
		KPIs:        kpis,
		Sections:    sections,
		TradesTable: tradesTable,
	}

	// Phase 4: persist the run snapshot and curves.
	run := &domain.PortfolioRun{
		RunID:        uuid.NewString(),
		BatchID:      req.BatchID,
		Currency:     currency,
		TotalCapital: totalCapital,
		DateStart:    req.DateRange.Start,
		DateEnd:      req.DateRange.End,
		CreatedAt:    time.Now().UTC(),
		KPIs:         kpis,
		Sections:     sections,
		EquityCurve:  portfolioCurve,
		TradesTable:  tradesTable,
	}
	r.log("Phase 4: Persisting run %s...", run.RunID)
	if err := r.runStore.Insert(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	if err := r.persistCurves(ctx, run.RunID, runReport); err != nil {
		return nil, err
	}

	observability.RecordRun("success", time.Since(started).Seconds(), len(allTrades), len(files))
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()

	return &Result{RunID: run.RunID, Report: runReport, Run: run}, nil
}

// processInstrument loads one stored export, normalizes its trades and
// builds the instrument equity series.
func (r *Runner) processInstrument(ctx context.Context, file *domain.FileRecord, capital float64, dates domain.DateRange) (instrumentResult, error) {
	content, err := r.objects.Get(ctx, file.ObjectKey)
	if err != nil {
		return instrumentResult{}, fmt.Errorf("load object %s: %w", file.ObjectKey, err)
	}

	table, err := ingest.ParseTable(bytes.NewReader(content), file.Ticker, file.Strategy)
	if err != nil {
		return instrumentResult{}, fmt.Errorf("parse csv: %w", err)
	}

	trades := normalize.ExtractTrades(table)
	if !dates.IsZero() {
		filtered := trades[:0]
		for _, t := range trades {
			if dates.Contains(t.ExitTime) {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	series := equity.BuildSeries(file.Ticker, trades, capital)

	var listing []domain.ListingRow
	for _, row := range table.Rows {
		if dates.IsZero() || dates.Contains(row.Timestamp) {
			listing = append(listing, domain.ListingRow{Ticker: file.Ticker, RawRow: row})
		}
	}

	return instrumentResult{series: series, listing: listing}, nil
}

// persistCurves stores the three report curves for later retrieval.
func (r *Runner) persistCurves(ctx context.Context, runID string, rep *domain.RunReport) error {
	curves := []struct {
		name   string
		points []domain.CurvePoint
	}{
		{storage.CurveEquity, rep.EquityCurve},
		{storage.CurveBuyHold, rep.BuyHold},
		{storage.CurveDrawdown, rep.Drawdown},
	}
	for _, c := range curves {
		if err := r.curveStore.InsertBulk(ctx, runID, c.name, c.points); err != nil {
			return fmt.Errorf("persist %s curve: %w", c.name, err)
		}
	}
	return nil
}

func (r *Runner) log(format string, args ...any) {
	if r.verbose {
		log.Printf(format, args...)
	}
}
