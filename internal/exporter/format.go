package exporter

import (
	"strconv"
)

// formatFloat formats an amount for CSV output without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent formats a top-client share with one decimal place
func formatPercent(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64) + "%"
}
