// Package analytics computes portfolio KPIs, drawdown and return ratios
// from aligned equity curves and normalized trades.
package analytics

import "math"

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 standard deviation. Fewer than two samples is
// undefined and reported as 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// pctChanges returns period-over-period returns of the curve values,
// dropping entries that are not finite (a zero previous value divides out
// to infinity and is discarded).
func pctChanges(values []float64) []float64 {
	var out []float64
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		r := values[i]/prev - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}
