// Package normalize reduces raw trade-log rows into canonical trade records.
package normalize

import (
	"math"
	"sort"
	"strings"

	"portfolio-lab/internal/domain"
)

// sizeEpsilon is the floor used when estimating position size from run-up and
// drawdown magnitudes.
const sizeEpsilon = 1e-6

// ExtractTrades groups a table's rows by trade number and reduces each group
// to one TradeRecord. Within a group rows are sorted by timestamp: the first
// row is the entry, the last the exit. The result is sorted by exit time
// ascending, then trade number for ties.
func ExtractTrades(table *domain.RawTable) []*domain.TradeRecord {
	groups := make(map[int][]domain.RawRow)
	var order []int
	for _, row := range table.Rows {
		if _, seen := groups[row.TradeNumber]; !seen {
			order = append(order, row.TradeNumber)
		}
		groups[row.TradeNumber] = append(groups[row.TradeNumber], row)
	}

	trades := make([]*domain.TradeRecord, 0, len(order))
	for _, tradeNumber := range order {
		trades = append(trades, reduceGroup(table.Ticker, tradeNumber, groups[tradeNumber]))
	}

	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].ExitTime.Equal(trades[j].ExitTime) {
			return trades[i].ExitTime.Before(trades[j].ExitTime)
		}
		return trades[i].TradeNumber < trades[j].TradeNumber
	})

	return trades
}

// reduceGroup distills the rows of one trade number into a single record.
func reduceGroup(ticker string, tradeNumber int, rows []domain.RawRow) *domain.TradeRecord {
	sorted := make([]domain.RawRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	entry := sorted[0]
	exit := sorted[len(sorted)-1]

	size, source := resolvePositionSize(sorted, exit)

	returnPct := 0.0
	if size != 0 {
		returnPct = exit.NetPnL / size
	}

	return &domain.TradeRecord{
		Ticker:         ticker,
		TradeNumber:    tradeNumber,
		EntryTime:      entry.Timestamp,
		ExitTime:       exit.Timestamp,
		NetPnL:         exit.NetPnL,
		PositionSize:   size,
		SizeSource:     source,
		TradeReturnPct: returnPct,
		Runup:          exit.Runup,
		Drawdown:       exit.Drawdown,
		Direction:      parseDirection(exit.Direction),
	}
}

// resolvePositionSize applies the size fallback policy:
//
//	Declared:   first non-zero declared size in the group.
//	Estimated:  |net_pnl| / max(|runup|, |drawdown|, epsilon) when no row
//	            declares a usable size.
//	Unresolved: the estimate itself collapsed to zero (net_pnl absent);
//	            the trade will carry a zero return.
func resolvePositionSize(rows []domain.RawRow, exit domain.RawRow) (float64, domain.SizeSource) {
	for _, row := range rows {
		if math.Abs(row.PositionSize) > 1e-9 {
			return row.PositionSize, domain.SizeDeclared
		}
	}

	magnitude := math.Max(math.Abs(exit.Runup), math.Abs(exit.Drawdown))
	if magnitude < sizeEpsilon {
		magnitude = sizeEpsilon
	}
	estimated := math.Abs(exit.NetPnL) / magnitude
	if estimated == 0 {
		return 0, domain.SizeUnresolved
	}
	return estimated, domain.SizeEstimated
}

// parseDirection maps the export's free-form direction cell onto the enum.
// Anything that does not read as short counts as long, matching the source
// data's "Type (Long/Short)" column.
func parseDirection(s string) domain.Direction {
	if strings.Contains(strings.ToLower(s), "short") {
		return domain.DirectionShort
	}
	return domain.DirectionLong
}
