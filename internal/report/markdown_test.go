package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"portfolio-lab/internal/domain"
)

func TestRenderMarkdown(t *testing.T) {
	r := &domain.RunReport{
		EquityCurve: testCurve(),
		Sections: []domain.Section{{
			Key:   SectionOverview,
			Title: "Overview",
			Metrics: []domain.Metric{
				{Label: "Total P&L", Value: 1234.5},
				{Label: "Profitable trades %", Value: 52.5},
				{Label: "Total trades", Value: 40},
				{Label: "Profit factor", Value: domain.MetricValue(math.Inf(1))},
			},
		}},
	}

	out := RenderMarkdown(r, "Mean_Reversion", "USD", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"# Portfolio Report: Mean_Reversion",
		"## Overview",
		"| Total P&L | $1,234.50 |",
		"| Profitable trades % | 52.50% |",
		"| Total trades | 40 |",
		"| Profit factor | Infinity |",
		"## Equity Curve",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestFormatMoneyUnknownCurrencyFallsBack(t *testing.T) {
	if got := formatMoney(10, "NOPE"); !strings.Contains(got, "10.00") {
		t.Errorf("unexpected format: %q", got)
	}
}
