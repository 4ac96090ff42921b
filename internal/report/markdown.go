package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"portfolio-lab/internal/domain"
)

// Labels rendered as money amounts; everything else prints as a count,
// percentage or plain ratio depending on its label.
var currencyLabels = map[string]bool{
	"Total P&L":           true,
	"Net profit":          true,
	"Open P&L":            true,
	"Gross profit":        true,
	"Gross loss":          true,
	"Commission paid":     true,
	"Buy & hold return":   true,
	"Max equity run-up":   true,
	"Max equity drawdown": true,
	"Avg trade":           true,
	"Avg winning trade":   true,
	"Avg losing trade":    true,
	"Largest win":         true,
	"Largest loss":        true,
}

var countLabels = map[string]bool{
	"Total trades":       true,
	"Winning trades":     true,
	"Losing trades":      true,
	"Max contracts held": true,
	"Margin calls":       true,
}

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(r *domain.RunReport, strategy, currency string, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Portfolio Report: %s\n\n", strategy))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))

	for _, section := range r.Sections {
		sb.WriteString(fmt.Sprintf("## %s\n\n", section.Title))
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		for _, m := range section.Metrics {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", m.Label, formatMetric(m, currency)))
		}
		sb.WriteString("\n")
	}

	if len(r.EquityCurve) > 0 {
		first := r.EquityCurve[0]
		last := r.EquityCurve[len(r.EquityCurve)-1]
		sb.WriteString("## Equity Curve\n\n")
		sb.WriteString(fmt.Sprintf("%d business days from %s to %s, %s to %s\n",
			len(r.EquityCurve),
			first.Timestamp.Format("2006-01-02"), last.Timestamp.Format("2006-01-02"),
			formatMoney(first.Value, currency), formatMoney(last.Value, currency)))
	}

	return sb.String()
}

func formatMetric(m domain.Metric, currency string) string {
	v := float64(m.Value)
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case currencyLabels[m.Label]:
		return formatMoney(v, currency)
	case countLabels[m.Label]:
		return fmt.Sprintf("%d", int64(v))
	case strings.Contains(m.Label, "%"):
		return fmt.Sprintf("%.2f%%", v)
	default:
		return fmt.Sprintf("%.4f", v)
	}
}

func formatMoney(v float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}
	minor := int64(math.Round(v * math.Pow10(cur.Fraction)))
	return money.New(minor, cur.Code).Display()
}
