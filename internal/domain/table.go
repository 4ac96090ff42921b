package domain

import "time"

// RawRow is one row of a trade-log export after column normalization.
// A round-trip trade typically spans two rows (entry and exit) sharing a
// trade number.
type RawRow struct {
	TradeNumber   int       `json:"trade_number"`
	Direction     string    `json:"direction"`
	Timestamp     time.Time `json:"timestamp"`
	Signal        string    `json:"signal"`
	Price         float64   `json:"price"`
	PositionSize  float64   `json:"position_size"`
	NetPnL        float64   `json:"net_pnl"`
	Runup         float64   `json:"runup"`
	Drawdown      float64   `json:"drawdown"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// RawTable is the canonical-schema table parsed from one instrument's export.
type RawTable struct {
	Ticker   string
	Strategy string
	Rows     []RawRow
}

// ListingRow is a raw row flattened with its instrument, as shown in the
// report's trade listing.
type ListingRow struct {
	Ticker string `json:"ticker"`
	RawRow
}
