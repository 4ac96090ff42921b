package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"portfolio-lab/internal/domain"
)

// Ingest errors.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrBadFilename    = errors.New("filename must follow Strategy_Ticker_YYYY-MM-DD.csv")
	ErrEmptyFile      = errors.New("export contains no rows")
)

// timestampLayouts are the accepted Date/Time formats, tried in order.
// Parsing is naive: no time-zone reconciliation beyond what the export
// carries.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseTable reads one instrument's CSV export into a canonical RawTable.
// Headers are alias-normalized and validated; rows duplicated on
// (trade #, timestamp, signal) are dropped. A malformed numeric or timestamp
// cell fails the whole table.
func ParseTable(r io.Reader, ticker, strategy string) (*domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	index := normalizeHeaders(records[0])
	if err := validateColumns(index); err != nil {
		return nil, err
	}

	table := &domain.RawTable{Ticker: ticker, Strategy: strategy}
	seen := make(map[string]struct{})

	for i, record := range records[1:] {
		row, err := parseRow(record, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		key := fmt.Sprintf("%d|%d|%s", row.TradeNumber, row.Timestamp.UnixNano(), row.Signal)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// parseRow converts one CSV record into a RawRow using the header index.
func parseRow(record []string, index map[string]int) (domain.RawRow, error) {
	var row domain.RawRow

	tradeNum, err := parseInt(cell(record, index, ColTradeNumber))
	if err != nil {
		return row, fmt.Errorf("parse %q: %w", ColTradeNumber, err)
	}
	ts, err := parseTimestamp(cell(record, index, ColTimestamp))
	if err != nil {
		return row, fmt.Errorf("parse %q: %w", ColTimestamp, err)
	}

	row.TradeNumber = tradeNum
	row.Timestamp = ts
	row.Direction = cell(record, index, ColDirection)
	row.Signal = cell(record, index, ColSignal)

	numeric := []struct {
		col string
		dst *float64
	}{
		{ColPrice, &row.Price},
		{ColPositionSize, &row.PositionSize},
		{ColNetPnL, &row.NetPnL},
		{ColRunup, &row.Runup},
		{ColDrawdown, &row.Drawdown},
		{ColCumulativePnL, &row.CumulativePnL},
	}
	for _, n := range numeric {
		v, err := parseFloat(cell(record, index, n.col))
		if err != nil {
			return row, fmt.Errorf("parse %q: %w", n.col, err)
		}
		*n.dst = v
	}

	return row, nil
}

// cell returns the record value for a canonical column, or "" when the row is
// shorter than the header.
func cell(record []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseFloat parses a numeric cell. Empty cells read as 0; thousands
// separators are stripped.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// parseInt parses an integer cell, tolerating a float rendering like "3.0".
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty trade number")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseTimestamp tries each accepted layout in order.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseFilename splits an upload filename into strategy, ticker and export
// date per the Strategy_Ticker_YYYY-MM-DD.csv convention. The strategy part
// may itself contain underscores.
func ParseFilename(filename string) (strategy, ticker string, exportDate time.Time, err error) {
	name := strings.TrimSuffix(filename, ".csv")

	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", "", time.Time{}, ErrBadFilename
	}

	datePart := parts[len(parts)-1]
	ticker = parts[len(parts)-2]
	strategy = strings.Join(parts[:len(parts)-2], "_")

	exportDate, err = time.Parse("2006-01-02", datePart)
	if err != nil || strategy == "" || ticker == "" {
		return "", "", time.Time{}, ErrBadFilename
	}
	return strategy, ticker, exportDate, nil
}
