package dto

import (
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// Period of a financial record. Only Annual is produced by the pipeline.
type Period string

const (
	PeriodAnnual Period = "Annual"
	PeriodQ1     Period = "Q1"
	PeriodQ2     Period = "Q2"
	PeriodQ3     Period = "Q3"
	PeriodQ4     Period = "Q4"
)

// Currency of the monetary fields of a record.
type Currency string

const (
	CurrencyLKR Currency = "LKR"
	CurrencyUSD Currency = "USD"
)

// Source tells whether a record was read from a report or estimated.
type Source string

const (
	SourceExtracted Source = "Extracted"
	SourceSample    Source = "Sample"
)

// ParseSource reads a provenance flag. Anything other than "extracted",
// including an empty value, is treated as estimated so that figures of
// unknown origin are never presented as read from a report.
func ParseSource(s string) Source {
	if strings.EqualFold(strings.TrimSpace(s), string(SourceExtracted)) {
		return SourceExtracted
	}
	return SourceSample
}

// IndustryAll matches every industry in a filter.
const IndustryAll = "All"

// FinancialRecord is one (year, period) row of metrics. Monetary fields are in
// billions of the record currency, per-share fields in units of it.
type FinancialRecord struct {
	Year              int        `json:"year"`
	Period            Period     `json:"period"`
	Revenue           null.Float `json:"revenue"`
	CostOfSales       null.Float `json:"cost_of_sales"`
	GrossProfit       null.Float `json:"gross_profit"`
	OperatingExpenses null.Float `json:"operating_expenses"`
	OperatingProfit   null.Float `json:"operating_profit"`
	NetProfit         null.Float `json:"net_profit"`
	EPS               null.Float `json:"eps"`
	NetAssetPerShare  null.Float `json:"net_asset_per_share"`
	Industry          string     `json:"industry"`
	Currency          Currency   `json:"currency"`
	Source            Source     `json:"source"`
}

// ShareholderRecord is a major shareholder's stake for one year.
type ShareholderRecord struct {
	Year                int     `json:"year"`
	Name                string  `json:"name"`
	OwnershipPercentage float64 `json:"ownership_percentage"`
}

// DerivedRecord is a FinancialRecord plus ratios and year-over-year growth in percent.
type DerivedRecord struct {
	FinancialRecord

	GrossProfitMargin     null.Float `json:"gross_profit_margin"`
	OperatingProfitMargin null.Float `json:"operating_profit_margin"`
	NetProfitMargin       null.Float `json:"net_profit_margin"`

	RevenueYoYGrowth          null.Float `json:"revenue_yoy_growth"`
	GrossProfitYoYGrowth      null.Float `json:"gross_profit_yoy_growth"`
	OperatingProfitYoYGrowth  null.Float `json:"operating_profit_yoy_growth"`
	NetProfitYoYGrowth        null.Float `json:"net_profit_yoy_growth"`
	EPSYoYGrowth              null.Float `json:"eps_yoy_growth"`
	NetAssetPerShareYoYGrowth null.Float `json:"net_asset_per_share_yoy_growth"`
}

// Table is the processed dataset handed to the analysis layers.
type Table struct {
	Rows         []DerivedRecord     `json:"rows"`
	Shareholders []ShareholderRecord `json:"shareholders"`
}

// Records returns the base records of the table, in table order.
func (t Table) Records() []FinancialRecord {
	out := make([]FinancialRecord, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.FinancialRecord
	}
	return out
}

// Annual returns the Annual rows of the table, in table order.
func (t Table) Annual() []DerivedRecord {
	var out []DerivedRecord
	for _, r := range t.Rows {
		if r.Period == PeriodAnnual {
			out = append(out, r)
		}
	}
	return out
}

// Years returns the distinct years present, ascending as stored.
func (t Table) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range t.Rows {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	return years
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// SnapshotFile describes one file of the upload batch that produced a snapshot.
type SnapshotFile struct {
	Filename string `json:"filename"`
	Year     int    `json:"year"`
	Source   Source `json:"source"`
}

// Snapshot is the persisted dataset of the latest upload batch.
type Snapshot struct {
	BatchID   string         `json:"batch_id"`
	CreatedAt time.Time      `json:"created_at"`
	Files     []SnapshotFile `json:"files"`
	Table     Table          `json:"table"`
}

// RawRow is an untyped row keyed by column name, as read from CSV.
type RawRow map[string]string
