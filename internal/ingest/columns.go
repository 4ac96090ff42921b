// Package ingest parses trade-log CSV exports into the canonical
// ten-column schema consumed by the normalizer.
package ingest

import (
	"fmt"
	"strings"
)

// Canonical column headers.
const (
	ColTradeNumber   = "Trade #"
	ColDirection     = "Type (Long/Short)"
	ColTimestamp     = "Date/Time"
	ColSignal        = "Signal"
	ColPrice         = "Price"
	ColPositionSize  = "Position size"
	ColNetPnL        = "Net P&L"
	ColRunup         = "Run-up"
	ColDrawdown      = "Drawdown"
	ColCumulativePnL = "Cumulative P&L"
)

// requiredColumns lists every header the canonical schema demands.
var requiredColumns = []string{
	ColTradeNumber,
	ColDirection,
	ColTimestamp,
	ColSignal,
	ColPrice,
	ColPositionSize,
	ColNetPnL,
	ColRunup,
	ColDrawdown,
	ColCumulativePnL,
}

// columnAliases maps known export header variants to canonical headers.
// Charting tools localize headers by currency ("Net P&L INR") and wording.
var columnAliases = map[string]string{
	"Type":                  ColDirection,
	"Side":                  ColDirection,
	"Trade type":            ColDirection,
	"Direction":             ColDirection,
	"Price INR":             ColPrice,
	"Price USD":             ColPrice,
	"Price (INR)":           ColPrice,
	"Price (USD)":           ColPrice,
	"Position size (qty)":   ColPositionSize,
	"Position size (value)": ColPositionSize,
	"Net P&L INR":           ColNetPnL,
	"Net P&L USD":           ColNetPnL,
	"Net Profit":            ColNetPnL,
	"Run-up INR":            ColRunup,
	"Run-up USD":            ColRunup,
	"Maximum Run-up":        ColRunup,
	"Drawdown INR":          ColDrawdown,
	"Drawdown USD":          ColDrawdown,
	"Maximum Drawdown":      ColDrawdown,
	"Cumulative P&L INR":    ColCumulativePnL,
	"Cumulative P&L USD":    ColCumulativePnL,
	"Cumulative Profit":     ColCumulativePnL,
}

// normalizeHeaders maps raw CSV headers to column indexes keyed by canonical
// name. When an export carries both "Position size (qty)" and
// "Position size (value)" the value column wins and the qty column is
// ignored.
func normalizeHeaders(headers []string) map[string]int {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	index := make(map[string]int, len(trimmed))

	hasQty, hasValue := false, false
	for _, h := range trimmed {
		switch h {
		case "Position size (qty)":
			hasQty = true
		case "Position size (value)":
			hasValue = true
		}
	}

	for i, h := range trimmed {
		if hasQty && hasValue && h == "Position size (qty)" {
			continue
		}
		canonical := h
		if alias, ok := columnAliases[h]; ok {
			canonical = alias
		}
		// First occurrence wins; canonical headers already present are
		// never overwritten by an alias.
		if _, exists := index[canonical]; !exists {
			index[canonical] = i
		}
	}

	return index
}

// validateColumns checks that every required canonical column is present.
func validateColumns(index map[string]int) error {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}
