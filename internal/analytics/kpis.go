package analytics

import (
	"math"

	"portfolio-lab/internal/domain"
)

const tradingDaysPerYear = 252

// KPI map keys shared with the report sections and persisted run snapshots.
const (
	KeyTotalPnL            = "total_pnl"
	KeyTotalReturnPct      = "total_return_pct"
	KeyMaxDrawdownAbs      = "max_drawdown_abs"
	KeyMaxDrawdownPct      = "max_drawdown_pct"
	KeyTotalTrades         = "total_trades"
	KeyProfitableTradesPct = "profitable_trades_pct"
	KeyProfitFactor        = "profit_factor"
	KeyAnnualizedReturnPct = "annualized_return_pct"
	KeyAvgTradeDuration    = "avg_trade_duration_days"
	KeyTotalTradeDays      = "total_trade_days"
)

// SplitWinsLosses partitions trades on net P&L. Break-even trades count as
// losses.
func SplitWinsLosses(trades []*domain.TradeRecord) (wins, losses []*domain.TradeRecord) {
	for _, t := range trades {
		if t.NetPnL > 0 {
			wins = append(wins, t)
		} else {
			losses = append(losses, t)
		}
	}
	return wins, losses
}

// ProfitFactor is |gross profit / gross loss|. With no losses it is +Inf
// when there is any profit, otherwise 0.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss != 0 {
		return math.Abs(grossProfit / grossLoss)
	}
	if grossProfit > 0 {
		return math.Inf(1)
	}
	return 0
}

// SummarizeKPIs computes the headline portfolio metrics from the full trade
// list and the aligned portfolio curve.
func SummarizeKPIs(trades []*domain.TradeRecord, curve []domain.CurvePoint) domain.KPIMap {
	totalTrades := len(trades)
	totalPnL := 0.0
	for _, t := range trades {
		totalPnL += t.NetPnL
	}
	wins, losses := SplitWinsLosses(trades)

	profitablePct := 0.0
	if totalTrades > 0 {
		profitablePct = float64(len(wins)) / float64(totalTrades) * 100
	}

	grossProfit := 0.0
	for _, t := range wins {
		grossProfit += t.NetPnL
	}
	grossLoss := 0.0
	for _, t := range losses {
		grossLoss += t.NetPnL
	}

	totalReturnPct := 0.0
	if len(curve) > 1 && curve[0].Value != 0 {
		totalReturnPct = (curve[len(curve)-1].Value/curve[0].Value - 1) * 100
	}

	return domain.KPIMap{
		KeyTotalPnL:            domain.MetricValue(totalPnL),
		KeyTotalReturnPct:      domain.MetricValue(totalReturnPct),
		KeyMaxDrawdownAbs:      domain.MetricValue(MaxDrawdownAbs(curve)),
		KeyMaxDrawdownPct:      domain.MetricValue(MaxDrawdownPct(curve)),
		KeyTotalTrades:         domain.MetricValue(totalTrades),
		KeyProfitableTradesPct: domain.MetricValue(profitablePct),
		KeyProfitFactor:        domain.MetricValue(ProfitFactor(grossProfit, grossLoss)),
	}
}

// Annualized derives the yearly return implied by the average per-trade
// return and the average trade duration, plus the duration aggregates.
func Annualized(trades []*domain.TradeRecord) (annualizedReturnPct, avgDurationDays, totalDays float64) {
	if len(trades) == 0 {
		return 0, 0, 0
	}
	avgReturn := 0.0
	for _, t := range trades {
		avgReturn += t.TradeReturnPct
	}
	avgReturn /= float64(len(trades))

	for _, t := range trades {
		d := t.DurationDays()
		avgDurationDays += d
		totalDays += d
	}
	avgDurationDays /= float64(len(trades))

	if avgDurationDays != 0 {
		tradesPerYear := 365.0 / avgDurationDays
		annualizedReturnPct = (math.Pow(1+avgReturn, tradesPerYear) - 1) * 100
		if math.IsNaN(annualizedReturnPct) || math.IsInf(annualizedReturnPct, 0) {
			annualizedReturnPct = 0
		}
	}
	return annualizedReturnPct, avgDurationDays, totalDays
}

// SharpeRatio annualizes the mean daily return over its sample deviation.
// Degenerate inputs report 0 rather than NaN.
func SharpeRatio(curve []domain.CurvePoint, riskFree float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := pctChanges(curveValues(curve))
	if len(returns) < 2 {
		return 0
	}
	std := sampleStdDev(returns)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (mean(returns) - riskFree/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}

// SortinoRatio penalizes only downside deviation. It needs at least two
// negative daily returns to be defined.
func SortinoRatio(curve []domain.CurvePoint, riskFree float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := pctChanges(curveValues(curve))
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	std := sampleStdDev(downside)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (mean(returns) - riskFree/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}

func curveValues(curve []domain.CurvePoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Value
	}
	return out
}
