package domain

import "time"

// minDurationDays keeps per-trade durations strictly positive so that
// downstream annualization never divides by zero.
const minDurationDays = 1e-9

// Direction is the side of a round-trip trade.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// SizeSource records how a trade's position size was resolved during
// normalization.
type SizeSource string

const (
	// SizeDeclared means the export carried a usable non-zero position size.
	SizeDeclared SizeSource = "DECLARED"

	// SizeEstimated means the size was reconstructed from |net_pnl| and the
	// trade's run-up/drawdown magnitudes.
	SizeEstimated SizeSource = "ESTIMATED"

	// SizeUnresolved means no size could be recovered; the trade contributes
	// a zero return.
	SizeUnresolved SizeSource = "UNRESOLVED"
)

// TradeRecord is one normalized round-trip trade, reduced from all raw rows
// sharing a trade number within one instrument's export. Immutable once
// created.
type TradeRecord struct {
	Ticker      string
	TradeNumber int

	EntryTime time.Time // earliest timestamp in the group
	ExitTime  time.Time // latest timestamp in the group

	NetPnL         float64
	PositionSize   float64
	SizeSource     SizeSource
	TradeReturnPct float64 // fraction: NetPnL / PositionSize
	Runup          float64
	Drawdown       float64
	Direction      Direction
}

// DurationDays returns the holding period in days, clamped to a small
// positive epsilon.
func (t *TradeRecord) DurationDays() float64 {
	days := t.ExitTime.Sub(t.EntryTime).Seconds() / 86_400
	if days < minDurationDays {
		return minDurationDays
	}
	return days
}
