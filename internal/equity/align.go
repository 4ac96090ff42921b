package equity

import (
	"time"

	"portfolio-lab/internal/domain"
)

// nanoTime converts a UnixNano key back to a UTC timestamp.
func nanoTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// businessDay maps a timestamp to the business day it belongs to: weekday
// timestamps keep their date, weekend timestamps roll back to the preceding
// Friday. Holding value between trade events stays at the last realized
// level, so weekend exits surface on the prior trading day.
func businessDay(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch day.Weekday() {
	case time.Saturday:
		return day.AddDate(0, 0, -1)
	case time.Sunday:
		return day.AddDate(0, 0, -2)
	}
	return day
}

// nextBusinessDay advances one business day, skipping weekends.
func nextBusinessDay(day time.Time) time.Time {
	day = day.AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// resampleBusinessDaily projects a time-ordered series onto the business-day
// calendar spanning its first and last points, forward-filling gaps: each day
// carries the most recent value at or before it. Points must be sorted by
// time ascending.
func resampleBusinessDaily(points []domain.CurvePoint) []domain.CurvePoint {
	if len(points) == 0 {
		return nil
	}

	first := businessDay(points[0].Timestamp)
	last := businessDay(points[len(points)-1].Timestamp)

	var out []domain.CurvePoint
	i := 0
	lastValue := points[0].Value
	for day := first; !day.After(last); day = nextBusinessDay(day) {
		for i < len(points) && !businessDay(points[i].Timestamp).After(day) {
			lastValue = points[i].Value
			i++
		}
		out = append(out, domain.CurvePoint{Timestamp: day, Value: lastValue})
	}
	return out
}

// AlignAndSum resamples every non-empty series onto business days,
// outer-joins them on the union of days, forward-fills each instrument past
// its last point, and sums across instruments per day. An instrument
// contributes only from its first aligned day onward; before that it is
// absent from the sum, not zero. No data at all yields an empty curve.
func AlignAndSum(series []domain.EquitySeries) []domain.CurvePoint {
	type aligned struct {
		points []domain.CurvePoint
		idx    int
		value  float64
		active bool
	}

	var frames []*aligned
	var start, end time.Time
	for i := range series {
		if series[i].Empty() {
			continue
		}
		pts := resampleBusinessDaily(series[i].Points)
		frames = append(frames, &aligned{points: pts})
		first := pts[0].Timestamp
		last := pts[len(pts)-1].Timestamp
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if end.IsZero() || last.After(end) {
			end = last
		}
	}
	if len(frames) == 0 {
		return nil
	}

	var portfolio []domain.CurvePoint
	for day := start; !day.After(end); day = nextBusinessDay(day) {
		sum := 0.0
		any := false
		for _, f := range frames {
			for f.idx < len(f.points) && !f.points[f.idx].Timestamp.After(day) {
				f.value = f.points[f.idx].Value
				f.active = true
				f.idx++
			}
			if f.active {
				sum += f.value
				any = true
			}
		}
		if any {
			portfolio = append(portfolio, domain.CurvePoint{Timestamp: day, Value: sum})
		}
	}
	return portfolio
}
