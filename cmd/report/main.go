// Package main renders a portfolio report from local trade-log CSV exports.
// It runs the full engine in memory and prints the report as Markdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-lab/internal/domain"
	"portfolio-lab/internal/ingest"
	"portfolio-lab/internal/report"
	"portfolio-lab/internal/runner"
	"portfolio-lab/internal/storage/memory"
)

func main() {
	dir := flag.String("dir", "", "Directory of CSV exports (alternative to file arguments)")
	capital := flag.Float64("capital", 100000, "Total capital split equally across instruments")
	currency := flag.String("currency", "USD", "Currency label for monetary values")
	riskFree := flag.Float64("risk-free", 0, "Annual risk-free rate for Sharpe/Sortino")
	dateStart := flag.String("date-start", "", "Only include trades exiting on or after this date (YYYY-MM-DD)")
	dateEnd := flag.String("date-end", "", "Only include trades exiting on or before this date (YYYY-MM-DD)")
	output := flag.String("output", "", "Write the report to this file instead of stdout")
	flag.Parse()

	paths := flag.Args()
	if *dir != "" {
		globbed, err := filepath.Glob(filepath.Join(*dir, "*.csv"))
		if err != nil {
			fatalf("scan %s: %v", *dir, err)
		}
		paths = append(paths, globbed...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: report [flags] export.csv [export.csv ...]")
		fmt.Fprintln(os.Stderr, "Files must follow the Strategy_Ticker_YYYY-MM-DD.csv convention.")
		flag.PrintDefaults()
		os.Exit(1)
	}

	dates, err := parseDates(*dateStart, *dateEnd)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()

	batches := memory.NewBatchStore()
	files := memory.NewFileRecordStore()
	runs := memory.NewRunStore()
	curves := memory.NewCurvePointStore()
	objects := memory.NewObjectStore()

	strategy, err := seedBatch(ctx, paths, batches, files, objects)
	if err != nil {
		fatalf("%v", err)
	}

	eng := runner.New(runner.Options{
		BatchStore:      batches,
		FileRecordStore: files,
		RunStore:        runs,
		CurvePointStore: curves,
		ObjectStore:     objects,
		RiskFreeRate:    *riskFree,
	})

	res, err := eng.Run(ctx, runner.Request{
		BatchID:      "local",
		TotalCapital: *capital,
		Currency:     *currency,
		DateRange:    dates,
	})
	if err != nil {
		fatalf("run failed: %v", err)
	}

	md := report.RenderMarkdown(res.Report, strategy, *currency, time.Now().UTC())

	if *output != "" {
		if err := os.WriteFile(*output, []byte(md), 0644); err != nil {
			fatalf("write %s: %v", *output, err)
		}
		fmt.Printf("Report written to %s\n", *output)
		return
	}
	fmt.Print(md)
}

// seedBatch loads the CSV files into the in-memory stores as one batch named
// "local". Every file must carry the same strategy in its filename.
func seedBatch(ctx context.Context, paths []string, batches *memory.BatchStore, files *memory.FileRecordStore, objects *memory.ObjectStore) (string, error) {
	strategy := ""

	type pending struct {
		record  *domain.FileRecord
		content []byte
	}
	var records []pending

	for _, path := range paths {
		name := filepath.Base(path)
		fileStrategy, ticker, exportDate, err := ingest.ParseFilename(name)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		if strategy == "" {
			strategy = fileStrategy
		} else if fileStrategy != strategy {
			return "", fmt.Errorf("%s: strategy %q differs from %q", name, fileStrategy, strategy)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}

		fileID := uuid.NewString()
		records = append(records, pending{
			record: &domain.FileRecord{
				FileID:     fileID,
				BatchID:    "local",
				Ticker:     ticker,
				Strategy:   fileStrategy,
				ExportDate: exportDate,
				Filename:   name,
				ObjectKey:  "local/" + fileID + "-" + name,
			},
			content: content,
		})
	}

	err := batches.Insert(ctx, &domain.Batch{
		BatchID:      "local",
		StrategyName: strategy,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("create batch: %w", err)
	}

	for _, p := range records {
		if err := objects.Put(ctx, p.record.ObjectKey, p.content); err != nil {
			return "", fmt.Errorf("store %s: %w", p.record.Filename, err)
		}
		if err := files.Insert(ctx, p.record); err != nil {
			return "", fmt.Errorf("record %s: %w", p.record.Filename, err)
		}
	}

	return strategy, nil
}

func parseDates(start, end string) (domain.DateRange, error) {
	var dates domain.DateRange
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return dates, fmt.Errorf("invalid -date-start %q", start)
		}
		dates.Start = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return dates, fmt.Errorf("invalid -date-end %q", end)
		}
		eod := t.Add(24*time.Hour - time.Nanosecond)
		dates.End = &eod
	}
	return dates, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+strings.TrimSuffix(format, "\n")+"\n", args...)
	os.Exit(1)
}
