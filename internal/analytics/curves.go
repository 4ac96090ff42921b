package analytics

import "portfolio-lab/internal/domain"

// DrawdownSeries returns the fractional distance of each point below the
// running maximum, 0 where the running maximum is not positive.
func DrawdownSeries(curve []domain.CurvePoint) []domain.CurvePoint {
	out := make([]domain.CurvePoint, len(curve))
	runMax := 0.0
	for i, p := range curve {
		if i == 0 || p.Value > runMax {
			runMax = p.Value
		}
		dd := 0.0
		if runMax != 0 {
			dd = (p.Value - runMax) / runMax
		}
		out[i] = domain.CurvePoint{Timestamp: p.Timestamp, Value: dd}
	}
	return out
}

// BuyHoldCurve rebases the portfolio curve on its first value. With the
// first value as the base the rebased curve reproduces the input, which is
// the benchmark the report publishes.
func BuyHoldCurve(curve []domain.CurvePoint) []domain.CurvePoint {
	if len(curve) == 0 {
		return nil
	}
	first := curve[0].Value
	out := make([]domain.CurvePoint, len(curve))
	for i, p := range curve {
		v := p.Value
		if first != 0 {
			v = first * (p.Value / first)
		}
		out[i] = domain.CurvePoint{Timestamp: p.Timestamp, Value: v}
	}
	return out
}

// MaxDrawdownAbs is the most negative gap between the curve and its running
// maximum.
func MaxDrawdownAbs(curve []domain.CurvePoint) float64 {
	minGap := 0.0
	runMax := 0.0
	for i, p := range curve {
		if i == 0 || p.Value > runMax {
			runMax = p.Value
		}
		if gap := p.Value - runMax; gap < minGap {
			minGap = gap
		}
	}
	return minGap
}

// MaxDrawdownPct is the most negative fractional drawdown, in percent.
func MaxDrawdownPct(curve []domain.CurvePoint) float64 {
	minRatio := 0.0
	runMax := 0.0
	for i, p := range curve {
		if i == 0 || p.Value > runMax {
			runMax = p.Value
		}
		if runMax == 0 {
			continue
		}
		if r := p.Value/runMax - 1; r < minRatio {
			minRatio = r
		}
	}
	return minRatio * 100
}

// MaxRunup is the largest gap between the curve and its running minimum.
func MaxRunup(curve []domain.CurvePoint) float64 {
	maxGap := 0.0
	runMin := 0.0
	for i, p := range curve {
		if i == 0 || p.Value < runMin {
			runMin = p.Value
		}
		if gap := p.Value - runMin; gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}
