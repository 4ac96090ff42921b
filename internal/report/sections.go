// Package report assembles the sectioned performance report and renders it
// for API responses and the CLI.
package report

import (
	"math"

	"portfolio-lab/internal/analytics"
	"portfolio-lab/internal/domain"
)

// Section keys consumed by report clients.
const (
	SectionOverview       = "overview"
	SectionPerformance    = "performance"
	SectionTradesAnalysis = "tradesAnalysis"
	SectionRiskRatios     = "riskRatios"
)

func metric(label string, value float64) domain.Metric {
	return domain.Metric{Label: label, Value: domain.MetricValue(value)}
}

// BuildSections expands the KPI map into the four display sections. Metric
// order inside each section is fixed; clients render them as-is.
func BuildSections(kpis domain.KPIMap, trades []*domain.TradeRecord, curve []domain.CurvePoint, riskFree float64) []domain.Section {
	wins, losses := analytics.SplitWinsLosses(trades)

	grossProfit := sumPnL(wins)
	grossLoss := sumPnL(losses)
	avgWin := meanPnL(wins)
	avgLoss := meanPnL(losses)

	ratio := 0.0
	switch {
	case avgLoss != 0:
		ratio = avgWin / math.Abs(avgLoss)
	case avgWin > 0:
		ratio = math.Inf(1)
	}

	buyHoldReturn := 0.0
	if len(curve) > 1 {
		buyHoldReturn = curve[len(curve)-1].Value - curve[0].Value
	}

	overview := domain.Section{
		Key:   SectionOverview,
		Title: "Overview",
		Metrics: []domain.Metric{
			{Label: "Total P&L", Value: kpis[analytics.KeyTotalPnL]},
			{Label: "Max equity drawdown", Value: kpis[analytics.KeyMaxDrawdownAbs]},
			{Label: "Total trades", Value: kpis[analytics.KeyTotalTrades]},
			{Label: "Profitable trades %", Value: kpis[analytics.KeyProfitableTradesPct]},
			{Label: "Profit factor", Value: kpis[analytics.KeyProfitFactor]},
			{Label: "Annualized P&L %", Value: kpis[analytics.KeyAnnualizedReturnPct]},
		},
	}

	performance := domain.Section{
		Key:   SectionPerformance,
		Title: "Performance",
		Metrics: []domain.Metric{
			metric("Open P&L", 0),
			{Label: "Net profit", Value: kpis[analytics.KeyTotalPnL]},
			metric("Gross profit", grossProfit),
			metric("Gross loss", grossLoss),
			metric("Commission paid", 0),
			metric("Buy & hold return", buyHoldReturn),
			metric("Max equity run-up", analytics.MaxRunup(curve)),
			{Label: "Max equity drawdown", Value: kpis[analytics.KeyMaxDrawdownAbs]},
			metric("Max contracts held", 1),
		},
	}

	tradesAnalysis := domain.Section{
		Key:   SectionTradesAnalysis,
		Title: "Trades analysis",
		Metrics: []domain.Metric{
			{Label: "Total trades", Value: kpis[analytics.KeyTotalTrades]},
			metric("Winning trades", float64(len(wins))),
			metric("Losing trades", float64(len(losses))),
			{Label: "% Profitable", Value: kpis[analytics.KeyProfitableTradesPct]},
			metric("Avg trade", meanPnL(trades)),
			metric("Avg trade %", meanReturnPct(trades)),
			metric("Avg winning trade", avgWin),
			metric("Avg losing trade", avgLoss),
			metric("Ratio avg win / avg loss", ratio),
			metric("Largest win", maxPnL(wins)),
			metric("Largest loss", minPnL(losses)),
			metric("Largest win %", maxReturnPct(wins)),
			metric("Largest loss %", minReturnPct(losses)),
			metric("Avg # bars in trades", meanDuration(trades)),
			metric("Avg # bars winning", meanDuration(wins)),
			metric("Avg # bars losing", meanDuration(losses)),
		},
	}

	riskRatios := domain.Section{
		Key:   SectionRiskRatios,
		Title: "Risk/performance ratios",
		Metrics: []domain.Metric{
			metric("Sharpe ratio", analytics.SharpeRatio(curve, riskFree)),
			metric("Sortino ratio", analytics.SortinoRatio(curve, riskFree)),
			{Label: "Profit factor", Value: kpis[analytics.KeyProfitFactor]},
			metric("Margin calls", 0),
		},
	}

	return []domain.Section{overview, performance, tradesAnalysis, riskRatios}
}

func sumPnL(trades []*domain.TradeRecord) float64 {
	sum := 0.0
	for _, t := range trades {
		sum += t.NetPnL
	}
	return sum
}

func meanPnL(trades []*domain.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	return sumPnL(trades) / float64(len(trades))
}

func meanReturnPct(trades []*domain.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.TradeReturnPct
	}
	return sum / float64(len(trades)) * 100
}

func meanDuration(trades []*domain.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.DurationDays()
	}
	return sum / float64(len(trades))
}

func maxPnL(trades []*domain.TradeRecord) float64 {
	best := 0.0
	for _, t := range trades {
		if t.NetPnL > best {
			best = t.NetPnL
		}
	}
	return best
}

func minPnL(trades []*domain.TradeRecord) float64 {
	worst := 0.0
	for _, t := range trades {
		if t.NetPnL < worst {
			worst = t.NetPnL
		}
	}
	return worst
}

func maxReturnPct(trades []*domain.TradeRecord) float64 {
	best := 0.0
	for _, t := range trades {
		if t.TradeReturnPct > best {
			best = t.TradeReturnPct
		}
	}
	return best * 100
}

func minReturnPct(trades []*domain.TradeRecord) float64 {
	worst := 0.0
	for _, t := range trades {
		if t.TradeReturnPct < worst {
			worst = t.TradeReturnPct
		}
	}
	return worst * 100
}
