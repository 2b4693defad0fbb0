package dto

import (
	"strings"

	"github.com/guregu/null/v6"
)

// Metric names a numeric column of a DerivedRecord.
type Metric string

const (
	MetricRevenue               Metric = "revenue"
	MetricCostOfSales           Metric = "cost_of_sales"
	MetricGrossProfit           Metric = "gross_profit"
	MetricOperatingExpenses     Metric = "operating_expenses"
	MetricOperatingProfit       Metric = "operating_profit"
	MetricNetProfit             Metric = "net_profit"
	MetricEPS                   Metric = "eps"
	MetricNetAssetPerShare      Metric = "net_asset_per_share"
	MetricGrossProfitMargin     Metric = "gross_profit_margin"
	MetricOperatingProfitMargin Metric = "operating_profit_margin"
	MetricNetProfitMargin       Metric = "net_profit_margin"
)

// BaseMetrics are the metrics stored on a FinancialRecord.
var BaseMetrics = []Metric{
	MetricRevenue,
	MetricCostOfSales,
	MetricGrossProfit,
	MetricOperatingExpenses,
	MetricOperatingProfit,
	MetricNetProfit,
	MetricEPS,
	MetricNetAssetPerShare,
}

// AllMetrics are all metrics a DerivedRecord exposes through Value.
var AllMetrics = append(append([]Metric{}, BaseMetrics...),
	MetricGrossProfitMargin,
	MetricOperatingProfitMargin,
	MetricNetProfitMargin,
)

var metricLabels = map[Metric]string{
	MetricRevenue:               "Revenue",
	MetricCostOfSales:           "Cost of Sales",
	MetricGrossProfit:           "Gross Profit",
	MetricOperatingExpenses:     "Operating Expenses",
	MetricOperatingProfit:       "Operating Profit",
	MetricNetProfit:             "Net Profit",
	MetricEPS:                   "EPS",
	MetricNetAssetPerShare:      "Net Asset Per Share",
	MetricGrossProfitMargin:     "Gross Profit Margin",
	MetricOperatingProfitMargin: "Operating Profit Margin",
	MetricNetProfitMargin:       "Net Profit Margin",
}

var metricAliases = map[string]Metric{
	"naps":       MetricNetAssetPerShare,
	"cos":        MetricCostOfSales,
	"cogs":       MetricCostOfSales,
	"opex":       MetricOperatingExpenses,
	"gp_margin":  MetricGrossProfitMargin,
	"net_margin": MetricNetProfitMargin,
}

// ParseMetric resolves a metric name case-insensitively. "Net_Profit",
// "net profit" and "net-profit" all resolve to MetricNetProfit.
func ParseMetric(name string) (Metric, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if m, ok := metricAliases[key]; ok {
		return m, true
	}
	m := Metric(key)
	_, ok := metricLabels[m]
	return m, ok
}

// Label is the display name of the metric.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// Monetary reports whether the metric is denominated in a currency.
func (m Metric) Monetary() bool {
	switch m {
	case MetricGrossProfitMargin, MetricOperatingProfitMargin, MetricNetProfitMargin:
		return false
	}
	return true
}

// Value returns the value of metric m and whether m is a known column.
func (r DerivedRecord) Value(m Metric) (null.Float, bool) {
	switch m {
	case MetricGrossProfitMargin:
		return r.GrossProfitMargin, true
	case MetricOperatingProfitMargin:
		return r.OperatingProfitMargin, true
	case MetricNetProfitMargin:
		return r.NetProfitMargin, true
	}
	return r.FinancialRecord.Value(m)
}

// Value returns the value of base metric m and whether m is a base column.
func (r FinancialRecord) Value(m Metric) (null.Float, bool) {
	if p := r.field(m); p != nil {
		return *p, true
	}
	return null.Float{}, false
}

// Set stores v in base metric m. It reports false for unknown metrics.
func (r *FinancialRecord) Set(m Metric, v null.Float) bool {
	p := r.field(m)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (r *FinancialRecord) field(m Metric) *null.Float {
	switch m {
	case MetricRevenue:
		return &r.Revenue
	case MetricCostOfSales:
		return &r.CostOfSales
	case MetricGrossProfit:
		return &r.GrossProfit
	case MetricOperatingExpenses:
		return &r.OperatingExpenses
	case MetricOperatingProfit:
		return &r.OperatingProfit
	case MetricNetProfit:
		return &r.NetProfit
	case MetricEPS:
		return &r.EPS
	case MetricNetAssetPerShare:
		return &r.NetAssetPerShare
	}
	return nil
}

// Growth returns the YoY growth column for m, if one is tracked.
func (r DerivedRecord) Growth(m Metric) (null.Float, bool) {
	switch m {
	case MetricRevenue:
		return r.RevenueYoYGrowth, true
	case MetricGrossProfit:
		return r.GrossProfitYoYGrowth, true
	case MetricOperatingProfit:
		return r.OperatingProfitYoYGrowth, true
	case MetricNetProfit:
		return r.NetProfitYoYGrowth, true
	case MetricEPS:
		return r.EPSYoYGrowth, true
	case MetricNetAssetPerShare:
		return r.NetAssetPerShareYoYGrowth, true
	}
	return null.Float{}, false
}

// SetGrowth stores the YoY growth of m. It reports false when m has no growth column.
func (r *DerivedRecord) SetGrowth(m Metric, v null.Float) bool {
	switch m {
	case MetricRevenue:
		r.RevenueYoYGrowth = v
	case MetricGrossProfit:
		r.GrossProfitYoYGrowth = v
	case MetricOperatingProfit:
		r.OperatingProfitYoYGrowth = v
	case MetricNetProfit:
		r.NetProfitYoYGrowth = v
	case MetricEPS:
		r.EPSYoYGrowth = v
	case MetricNetAssetPerShare:
		r.NetAssetPerShareYoYGrowth = v
	default:
		return false
	}
	return true
}

// GrowthMetrics are the metrics with a YoY growth column.
var GrowthMetrics = []Metric{
	MetricRevenue,
	MetricGrossProfit,
	MetricOperatingProfit,
	MetricNetProfit,
	MetricEPS,
	MetricNetAssetPerShare,
}
