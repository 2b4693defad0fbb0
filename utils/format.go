package utils

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Trend colours used by the dashboard.
const (
	ColorUp      = "#10B981"
	ColorDown    = "#EF4444"
	ColorNeutral = "#6B7280"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to places decimals using decimal arithmetic so that
// values like 1.005 round the way they print.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatCurrency renders a value held in billions. Values under one billion
// are shown in millions (M) and then thousands (K).
func FormatCurrency(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	x := v.Float64
	switch a := math.Abs(x); {
	case a >= 1:
		return fmt.Sprintf("%.2f", x)
	case a >= 0.001:
		return fmt.Sprintf("%.2fM", x*1000)
	default:
		return fmt.Sprintf("%.2fK", x*1000000)
	}
}

// FormatPercentage renders a percentage with one decimal.
func FormatPercentage(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", v.Float64)
}

// FormatSignedPercentage renders a change with an explicit sign.
func FormatSignedPercentage(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", v.Float64)
}

// TrendColor maps a change to green, red or gray.
func TrendColor(v null.Float) string {
	switch {
	case !v.Valid || v.Float64 == 0:
		return ColorNeutral
	case v.Float64 > 0:
		return ColorUp
	default:
		return ColorDown
	}
}
