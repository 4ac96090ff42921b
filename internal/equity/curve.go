// Package equity builds per-instrument equity curves and aligns them onto a
// common business-day calendar.
package equity

import (
	"sort"

	"portfolio-lab/internal/domain"
)

// BuildSeries compounds initial capital over trades in exit-time order and
// returns the instrument's equity series. The series always starts at the
// first trade's entry time with the initial capital, unless a trade exits at
// exactly that timestamp. Empty input yields an empty series.
func BuildSeries(ticker string, trades []*domain.TradeRecord, initialCapital float64) domain.EquitySeries {
	series := domain.EquitySeries{Ticker: ticker, Trades: trades}
	if len(trades) == 0 {
		return series
	}

	// Later trades exiting at the same timestamp overwrite earlier ones, so
	// each timestamp keys exactly one value.
	values := make(map[int64]float64, len(trades)+1)
	var keys []int64

	capital := initialCapital
	for _, trade := range trades {
		capital *= 1 + trade.TradeReturnPct
		key := trade.ExitTime.UnixNano()
		if _, exists := values[key]; !exists {
			keys = append(keys, key)
		}
		values[key] = capital
	}

	start := trades[0].EntryTime.UnixNano()
	if _, exists := values[start]; !exists {
		values[start] = initialCapital
		keys = append(keys, start)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	series.Points = make([]domain.CurvePoint, len(keys))
	for i, key := range keys {
		series.Points[i] = domain.CurvePoint{
			Timestamp: nanoTime(key),
			Value:     values[key],
		}
	}
	return series
}
