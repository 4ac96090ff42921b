package domain

import "time"

// CurvePoint is one (timestamp, value) point of an equity or portfolio curve.
type CurvePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// EquitySeries is the compounding capital curve for a single instrument,
// together with the trades that produced it. Points are ordered by time
// ascending: the entry time of the first trade, then each trade's exit time.
type EquitySeries struct {
	Ticker string
	Points []CurvePoint
	Trades []*TradeRecord
}

// Empty reports whether the series has no points.
func (s *EquitySeries) Empty() bool { return len(s.Points) == 0 }
