package domain

import "time"

// Batch groups the files uploaded together for one strategy.
type Batch struct {
	BatchID      string
	StrategyName string
	CreatedAt    time.Time
}

// FileRecord describes one stored instrument export within a batch.
type FileRecord struct {
	FileID      string
	BatchID     string
	Ticker      string
	Strategy    string
	ExportDate  time.Time
	Filename    string
	ObjectKey   string
	Fingerprint string // content hash, used for duplicate detection
	RowsParsed  int
}

// DateRange is an optional inclusive [Start, End] filter. A nil bound is
// open-ended.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.Start == nil && r.End == nil }

// Contains reports whether t falls within the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// PortfolioRun is the persistence-ready snapshot of one completed run.
type PortfolioRun struct {
	RunID        string
	BatchID      string
	Currency     string
	TotalCapital float64
	DateStart    *time.Time
	DateEnd      *time.Time
	CreatedAt    time.Time

	KPIs        KPIMap
	Sections    []Section
	EquityCurve []CurvePoint
	TradesTable []ListingRow
}
