package domain

import (
	"bytes"
	"math"
	"strconv"
)

// MetricValue is a float64 that survives JSON encoding when it carries the
// profit-factor infinity sentinel. encoding/json rejects IEEE infinities, so
// they are emitted as the strings "Infinity" / "-Infinity"; callers are
// expected to special-case them for display.
type MetricValue float64

// MarshalJSON encodes finite values as plain numbers and infinities as
// quoted sentinel strings. NaN never reaches this point: every statistic in
// the engine resolves undefined cases to 0 before reporting.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	default:
		return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
	}
}

// UnmarshalJSON accepts both plain numbers and the infinity sentinels.
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte(`"Infinity"`)):
		*v = MetricValue(math.Inf(1))
		return nil
	case bytes.Equal(data, []byte(`"-Infinity"`)):
		*v = MetricValue(math.Inf(-1))
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*v = MetricValue(f)
	return nil
}

// KPIMap is the flat name → number mapping of run-level KPIs.
type KPIMap map[string]MetricValue

// Metric is one labeled value inside a report section.
type Metric struct {
	Label string      `json:"label"`
	Value MetricValue `json:"value"`
}

// Section is a titled, ordered list of metrics.
type Section struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Metrics []Metric `json:"metrics"`
}

// RunReport is the finished portfolio report returned to the caller.
type RunReport struct {
	EquityCurve []CurvePoint `json:"equityCurve"`
	BuyHold     []CurvePoint `json:"buyHoldCurve"`
	Drawdown    []CurvePoint `json:"drawdown"`
	KPIs        KPIMap       `json:"kpis"`
	Sections    []Section    `json:"sections"`
	TradesTable []ListingRow `json:"tradesTable"`
}
