package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

var periodOrder = map[dto.Period]int{
	dto.PeriodQ1:     1,
	dto.PeriodQ2:     2,
	dto.PeriodQ3:     3,
	dto.PeriodQ4:     4,
	dto.PeriodAnnual: 5,
}

// Normalize sorts records, back-fills gross and operating profit from their
// components where missing, and derives margins and year-over-year growth.
// Normalize(Normalize(x).Records()) equals Normalize(x).
func Normalize(records []dto.FinancialRecord) dto.Table {
	rows := make([]dto.DerivedRecord, len(records))
	for i, r := range records {
		if r.Period == "" {
			r.Period = dto.PeriodAnnual
		}
		if r.Industry == "" {
			r.Industry = dto.IndustryAll
		}
		if r.Currency == "" {
			r.Currency = dto.CurrencyLKR
		}
		r.Source = dto.ParseSource(string(r.Source))
		backfill(&r)
		rows[i] = dto.DerivedRecord{FinancialRecord: r}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Period != b.Period {
			return periodOrder[a.Period] < periodOrder[b.Period]
		}
		return a.Industry < b.Industry
	})

	for i := range rows {
		r := &rows[i]
		r.GrossProfitMargin = ratio(r.GrossProfit, r.Revenue)
		r.OperatingProfitMargin = ratio(r.OperatingProfit, r.Revenue)
		r.NetProfitMargin = ratio(r.NetProfit, r.Revenue)
	}

	computeGrowth(rows)

	return dto.Table{Rows: rows}
}

// NormalizeDataset normalizes records and attaches shareholders sorted by
// year then descending stake.
func NormalizeDataset(records []dto.FinancialRecord, holders []dto.ShareholderRecord) dto.Table {
	t := Normalize(records)
	t.Shareholders = append([]dto.ShareholderRecord(nil), holders...)
	sort.SliceStable(t.Shareholders, func(i, j int) bool {
		a, b := t.Shareholders[i], t.Shareholders[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.OwnershipPercentage > b.OwnershipPercentage
	})
	return t
}

func backfill(r *dto.FinancialRecord) {
	if !r.GrossProfit.Valid && r.Revenue.Valid && r.CostOfSales.Valid {
		r.GrossProfit = null.FloatFrom(r.Revenue.Float64 - r.CostOfSales.Float64)
	}
	if !r.OperatingProfit.Valid && r.GrossProfit.Valid && r.OperatingExpenses.Valid {
		r.OperatingProfit = null.FloatFrom(r.GrossProfit.Float64 - r.OperatingExpenses.Float64)
	}
}

// ratio returns part/whole*100, or null when either is missing or whole is zero.
func ratio(part, whole null.Float) null.Float {
	if !part.Valid || !whole.Valid || whole.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(part.Float64 / whole.Float64 * 100)
}

// growth returns (cur-prev)/prev*100, or null when undefined.
func growth(cur, prev null.Float) null.Float {
	if !cur.Valid || !prev.Valid || prev.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((cur.Float64 - prev.Float64) / prev.Float64 * 100)
}

// computeGrowth fills YoY growth within each (industry, period) group. rows
// must already be sorted by year.
func computeGrowth(rows []dto.DerivedRecord) {
	type groupKey struct {
		industry string
		period   dto.Period
	}
	last := make(map[groupKey]int)

	for i := range rows {
		key := groupKey{rows[i].Industry, rows[i].Period}
		prevIdx, seen := last[key]
		for _, m := range dto.GrowthMetrics {
			g := null.Float{}
			if seen {
				cur, _ := rows[i].Value(m)
				prev, _ := rows[prevIdx].Value(m)
				g = growth(cur, prev)
			}
			rows[i].SetGrowth(m, g)
		}
		last[key] = i
	}
}

// FilterOptions carries the settings Filter needs beyond the query.
type FilterOptions struct {
	LKRPerUSD float64
}

// Filter returns a new table restricted to the query's years and industry,
// with monetary fields converted to the query currency. Growth columns are
// carried over from the full series. The input table is not modified.
func Filter(t dto.Table, q dto.FilterQuery, opts FilterOptions) dto.Table {
	years := make(map[int]bool, len(q.Years))
	for _, y := range q.Years {
		years[y] = true
	}
	allIndustries := q.Industry == "" || strings.EqualFold(q.Industry, dto.IndustryAll)

	out := dto.Table{}
	for _, r := range t.Rows {
		if len(years) > 0 && !years[r.Year] {
			continue
		}
		if !allIndustries && r.Industry != q.Industry {
			continue
		}
		if q.Currency != "" && q.Currency != r.Currency {
			r = convert(r, q.Currency, opts.LKRPerUSD)
		}
		out.Rows = append(out.Rows, r)
	}

	for _, s := range t.Shareholders {
		if len(years) > 0 && !years[s.Year] {
			continue
		}
		out.Shareholders = append(out.Shareholders, s)
	}
	return out
}

// convert rescales every monetary field from r's currency to target. Ratios
// and growth rates are currency independent and left alone.
func convert(r dto.DerivedRecord, target dto.Currency, lkrPerUSD float64) dto.DerivedRecord {
	if lkrPerUSD <= 0 {
		return r
	}
	rate := decimal.NewFromFloat(lkrPerUSD)

	var scale func(decimal.Decimal) decimal.Decimal
	switch {
	case r.Currency == dto.CurrencyLKR && target == dto.CurrencyUSD:
		scale = func(d decimal.Decimal) decimal.Decimal { return d.Div(rate) }
	case r.Currency == dto.CurrencyUSD && target == dto.CurrencyLKR:
		scale = func(d decimal.Decimal) decimal.Decimal { return d.Mul(rate) }
	default:
		return r
	}

	for _, m := range dto.BaseMetrics {
		if !m.Monetary() {
			continue
		}
		v, _ := r.FinancialRecord.Value(m)
		if !v.Valid {
			continue
		}
		f, _ := scale(decimal.NewFromFloat(v.Float64)).Float64()
		r.Set(m, null.FloatFrom(f))
	}
	r.Currency = target
	return r
}

// ParseRawRows coerces untyped rows into records. Year must parse as a whole
// number or the row is skipped; unparseable metric cells become null. Rows
// without a source column are marked as estimated.
func ParseRawRows(raw []dto.RawRow) ([]dto.FinancialRecord, int) {
	var out []dto.FinancialRecord
	skipped := 0

	for _, row := range raw {
		cells := make(map[string]string, len(row))
		for k, v := range row {
			cells[columnKey(k)] = strings.TrimSpace(v)
		}

		year, ok := parseYear(cells["year"])
		if !ok {
			skipped++
			continue
		}

		rec := dto.FinancialRecord{
			Year:     year,
			Period:   dto.Period(firstNonEmpty(cells["period"], cells["quarter"], string(dto.PeriodAnnual))),
			Industry: firstNonEmpty(cells["industry"], dto.IndustryAll),
			Currency: dto.Currency(strings.ToUpper(firstNonEmpty(cells["currency"], string(dto.CurrencyLKR)))),
			Source:   dto.ParseSource(cells["source"]),
		}
		for _, m := range dto.BaseMetrics {
			rec.Set(m, parseNullFloat(cells[string(m)]))
		}
		out = append(out, rec)
	}
	return out, skipped
}

func columnKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	if m, ok := dto.ParseMetric(k); ok {
		return string(m)
	}
	return k
}

func parseYear(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseNullFloat(s string) null.Float {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return null.Float{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
