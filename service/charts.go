package service

import (
	"fmt"
	"sort"

	"github.com/guregu/null/v6"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

const (
	colorPrimary    = "#1E3A8A"
	colorSecondary  = "#F59E0B"
	colorAccent     = "#10B981"
	topShareholders = 10
)

// BuildCharts describes the dashboard charts for the annual rows of t.
func BuildCharts(t dto.Table) []dto.Chart {
	annual := t.Annual()
	if len(annual) == 0 {
		return nil
	}

	labels := make([]string, len(annual))
	for i, r := range annual {
		labels[i] = fmt.Sprint(r.Year)
	}
	currency := string(annual[len(annual)-1].Currency)

	column := func(m dto.Metric) []null.Float {
		out := make([]null.Float, len(annual))
		for i, r := range annual {
			out[i], _ = r.Value(m)
		}
		return out
	}

	revenue := dto.Chart{
		ID:     "revenue_trend",
		Title:  "Revenue Trend",
		Type:   dto.ChartLine,
		XLabel: "Year",
		YLabel: fmt.Sprintf("Revenue (Billion %s)", currency),
		Labels: labels,
		Series: []dto.ChartSeries{{Name: "Revenue", Color: colorPrimary, Values: column(dto.MetricRevenue)}},
	}
	for i, r := range annual {
		if !r.Revenue.Valid || !r.RevenueYoYGrowth.Valid {
			continue
		}
		revenue.Annotations = append(revenue.Annotations, dto.ChartAnnotation{
			Label: labels[i],
			Value: r.Revenue.Float64,
			Text:  utils.FormatSignedPercentage(r.RevenueYoYGrowth),
			Color: utils.TrendColor(r.RevenueYoYGrowth),
		})
	}

	charts := []dto.Chart{
		revenue,
		{
			ID:     "cost_vs_expenses",
			Title:  "Cost of Sales vs Operating Expenses",
			Type:   dto.ChartBar,
			XLabel: "Year",
			YLabel: fmt.Sprintf("Amount (Billion %s)", currency),
			Labels: labels,
			Series: []dto.ChartSeries{
				{Name: "Cost of Sales", Color: colorPrimary, Values: column(dto.MetricCostOfSales)},
				{Name: "Operating Expenses", Color: colorSecondary, Values: column(dto.MetricOperatingExpenses)},
			},
		},
		{
			ID:     "gross_profit_margin",
			Title:  "Gross Profit Margin",
			Type:   dto.ChartLine,
			XLabel: "Year",
			YLabel: "Margin (%)",
			Labels: labels,
			Series: []dto.ChartSeries{{Name: "Gross Profit Margin", Color: colorAccent, Values: column(dto.MetricGrossProfitMargin)}},
		},
		{
			ID:     "eps_trend",
			Title:  "Earnings Per Share",
			Type:   dto.ChartLine,
			XLabel: "Year",
			YLabel: fmt.Sprintf("EPS (%s)", currency),
			Labels: labels,
			Series: []dto.ChartSeries{{Name: "EPS", Color: colorPrimary, Values: column(dto.MetricEPS)}},
		},
		{
			ID:     "naps_trend",
			Title:  "Net Asset Per Share",
			Type:   dto.ChartLine,
			XLabel: "Year",
			YLabel: fmt.Sprintf("NAPS (%s)", currency),
			Labels: labels,
			Series: []dto.ChartSeries{{Name: "Net Asset Per Share", Color: colorSecondary, Values: column(dto.MetricNetAssetPerShare)}},
		},
	}

	if c, ok := shareholderChart(t.Shareholders); ok {
		charts = append(charts, c)
	}
	return charts
}

// shareholderChart ranks the largest holders of the most recent year.
func shareholderChart(holders []dto.ShareholderRecord) (dto.Chart, bool) {
	if len(holders) == 0 {
		return dto.Chart{}, false
	}
	latest := holders[0].Year
	for _, h := range holders {
		if h.Year > latest {
			latest = h.Year
		}
	}

	var rows []dto.ShareholderRecord
	for _, h := range holders {
		if h.Year == latest {
			rows = append(rows, h)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OwnershipPercentage > rows[j].OwnershipPercentage })
	if len(rows) > topShareholders {
		rows = rows[:topShareholders]
	}

	c := dto.Chart{
		ID:     "top_shareholders",
		Title:  fmt.Sprintf("Top %d Shareholders (%d)", len(rows), latest),
		Type:   dto.ChartHBar,
		XLabel: "Ownership (%)",
		YLabel: "Shareholder",
	}
	values := make([]null.Float, len(rows))
	for i, h := range rows {
		c.Labels = append(c.Labels, h.Name)
		values[i] = null.FloatFrom(h.OwnershipPercentage)
	}
	c.Series = []dto.ChartSeries{{Name: "Ownership", Color: colorPrimary, Values: values}}
	return c, true
}

// KeyMetrics returns the headline cards for the latest annual row.
func KeyMetrics(t dto.Table) []dto.MetricCard {
	annual := t.Annual()
	if len(annual) == 0 {
		return nil
	}
	latest := annual[len(annual)-1]
	cur := string(latest.Currency)

	marginChange := null.Float{}
	if len(annual) > 1 {
		prev := annual[len(annual)-2]
		if latest.GrossProfitMargin.Valid && prev.GrossProfitMargin.Valid {
			marginChange = null.FloatFrom(latest.GrossProfitMargin.Float64 - prev.GrossProfitMargin.Float64)
		}
	}

	card := func(m dto.Metric, value null.Float, display string, change null.Float, changeFmt string) dto.MetricCard {
		return dto.MetricCard{
			Metric:    m,
			Label:     m.Label(),
			Year:      latest.Year,
			Value:     value,
			Display:   display,
			Change:    change,
			ChangeFmt: changeFmt,
			Color:     utils.TrendColor(change),
		}
	}

	growthCard := func(m dto.Metric, value null.Float, display string) dto.MetricCard {
		g, _ := latest.Growth(m)
		return card(m, value, display, g, utils.FormatSignedPercentage(g))
	}

	ppChange := "N/A"
	if marginChange.Valid {
		ppChange = fmt.Sprintf("%+.1f pp", marginChange.Float64)
	}

	return []dto.MetricCard{
		growthCard(dto.MetricRevenue, latest.Revenue,
			withUnit(utils.FormatCurrency(latest.Revenue), "B "+cur, latest.Revenue.Valid)),
		card(dto.MetricGrossProfitMargin, latest.GrossProfitMargin,
			utils.FormatPercentage(latest.GrossProfitMargin),
			marginChange, ppChange),
		growthCard(dto.MetricEPS, latest.EPS,
			withUnit(formatPlain(latest.EPS), cur, latest.EPS.Valid)),
		growthCard(dto.MetricNetAssetPerShare, latest.NetAssetPerShare,
			withUnit(formatPlain(latest.NetAssetPerShare), cur, latest.NetAssetPerShare.Valid)),
	}
}

func formatPlain(v null.Float) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func withUnit(s, unit string, ok bool) string {
	if !ok {
		return s
	}
	return s + " " + unit
}
