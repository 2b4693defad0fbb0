package service

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

func record(year int, revenue, cost, opex, net, eps, naps float64) dto.FinancialRecord {
	return dto.FinancialRecord{
		Year:              year,
		Revenue:           null.FloatFrom(revenue),
		CostOfSales:       null.FloatFrom(cost),
		OperatingExpenses: null.FloatFrom(opex),
		NetProfit:         null.FloatFrom(net),
		EPS:               null.FloatFrom(eps),
		NetAssetPerShare:  null.FloatFrom(naps),
		Source:            dto.SourceExtracted,
	}
}

func sampleRecords() []dto.FinancialRecord {
	return []dto.FinancialRecord{
		record(2022, 121, 90, 10, 15, 8, 150),
		record(2020, 100, 75, 8, 10, 5, 120),
		record(2021, 110, 82, 9, 12, 6, 135),
	}
}

func TestNormalizeSortsAndDefaults(t *testing.T) {
	table := Normalize(sampleRecords())

	require.Len(t, table.Rows, 3)
	assert.Equal(t, []int{2020, 2021, 2022}, table.Years())
	for _, r := range table.Rows {
		assert.Equal(t, dto.PeriodAnnual, r.Period)
		assert.Equal(t, dto.IndustryAll, r.Industry)
		assert.Equal(t, dto.CurrencyLKR, r.Currency)
		assert.Equal(t, dto.SourceExtracted, r.Source)
	}
}

func TestNormalizeMarksUnknownSourceAsSample(t *testing.T) {
	records := []dto.FinancialRecord{
		{Year: 2021, Revenue: null.FloatFrom(1)},
		{Year: 2022, Revenue: null.FloatFrom(2), Source: "extracted"},
		{Year: 2023, Revenue: null.FloatFrom(3), Source: "scraped"},
	}

	table := Normalize(records)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, dto.SourceSample, table.Rows[0].Source)
	assert.Equal(t, dto.SourceExtracted, table.Rows[1].Source)
	assert.Equal(t, dto.SourceSample, table.Rows[2].Source)
}

func TestNormalizeBackfillsAndDerivesMargins(t *testing.T) {
	table := Normalize(sampleRecords())
	first := table.Rows[0]

	assert.Equal(t, null.FloatFrom(25), first.GrossProfit)
	assert.Equal(t, null.FloatFrom(17), first.OperatingProfit)
	assert.InDelta(t, 25.0, first.GrossProfitMargin.Float64, 1e-9)
	assert.InDelta(t, 17.0, first.OperatingProfitMargin.Float64, 1e-9)
	assert.InDelta(t, 10.0, first.NetProfitMargin.Float64, 1e-9)
}

func TestNormalizeGrowth(t *testing.T) {
	table := Normalize(sampleRecords())

	assert.False(t, table.Rows[0].RevenueYoYGrowth.Valid, "first year has no growth")
	assert.InDelta(t, 10.0, table.Rows[1].RevenueYoYGrowth.Float64, 1e-9)
	assert.InDelta(t, 10.0, table.Rows[2].RevenueYoYGrowth.Float64, 1e-9)
	assert.InDelta(t, 20.0, table.Rows[1].EPSYoYGrowth.Float64, 1e-9)
}

func TestNormalizeMissingValuesStayNull(t *testing.T) {
	records := []dto.FinancialRecord{
		{Year: 2020, Revenue: null.FloatFrom(0), NetProfit: null.FloatFrom(5)},
		{Year: 2021, Revenue: null.FloatFrom(50)},
	}

	table := Normalize(records)

	assert.False(t, table.Rows[0].NetProfitMargin.Valid, "zero revenue has no margin")
	assert.False(t, table.Rows[0].GrossProfit.Valid)
	assert.False(t, table.Rows[1].RevenueYoYGrowth.Valid, "growth from zero is undefined")
	assert.False(t, table.Rows[1].NetProfitYoYGrowth.Valid)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once := Normalize(sampleRecords())
	twice := Normalize(once.Records())

	assert.Equal(t, once, twice)
}

func TestNormalizeGroupsGrowthByIndustry(t *testing.T) {
	records := []dto.FinancialRecord{
		{Year: 2020, Industry: "Leisure", Revenue: null.FloatFrom(100)},
		{Year: 2020, Industry: "Retail", Revenue: null.FloatFrom(50)},
		{Year: 2021, Industry: "Leisure", Revenue: null.FloatFrom(150)},
		{Year: 2021, Industry: "Retail", Revenue: null.FloatFrom(55)},
	}

	table := Normalize(records)

	require.Len(t, table.Rows, 4)
	assert.Equal(t, "Leisure", table.Rows[2].Industry)
	assert.InDelta(t, 50.0, table.Rows[2].RevenueYoYGrowth.Float64, 1e-9)
	assert.InDelta(t, 10.0, table.Rows[3].RevenueYoYGrowth.Float64, 1e-9)
}

func TestNormalizeDatasetSortsShareholders(t *testing.T) {
	holders := []dto.ShareholderRecord{
		{Year: 2022, Name: "B", OwnershipPercentage: 5},
		{Year: 2021, Name: "C", OwnershipPercentage: 3},
		{Year: 2022, Name: "A", OwnershipPercentage: 9},
	}

	table := NormalizeDataset(sampleRecords(), holders)

	require.Len(t, table.Shareholders, 3)
	assert.Equal(t, "C", table.Shareholders[0].Name)
	assert.Equal(t, "A", table.Shareholders[1].Name)
	assert.Equal(t, "B", table.Shareholders[2].Name)
}

func TestFilterNoConstraintsIsIdentity(t *testing.T) {
	table := Normalize(sampleRecords())

	filtered := Filter(table, dto.FilterQuery{}, FilterOptions{LKRPerUSD: 200})

	assert.Equal(t, table.Rows, filtered.Rows)
}

func TestFilterByYearsKeepsGrowth(t *testing.T) {
	table := Normalize(sampleRecords())

	filtered := Filter(table, dto.FilterQuery{Years: []int{2022}}, FilterOptions{})

	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, 2022, filtered.Rows[0].Year)
	assert.InDelta(t, 10.0, filtered.Rows[0].RevenueYoYGrowth.Float64, 1e-9)
}

func TestFilterByIndustry(t *testing.T) {
	records := []dto.FinancialRecord{
		{Year: 2020, Industry: "Leisure", Revenue: null.FloatFrom(100)},
		{Year: 2020, Industry: "Retail", Revenue: null.FloatFrom(50)},
	}
	table := Normalize(records)

	filtered := Filter(table, dto.FilterQuery{Industry: "Retail"}, FilterOptions{})
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "Retail", filtered.Rows[0].Industry)

	all := Filter(table, dto.FilterQuery{Industry: "all"}, FilterOptions{})
	assert.Len(t, all.Rows, 2)
}

func TestFilterConvertsCurrency(t *testing.T) {
	table := Normalize(sampleRecords())

	usd := Filter(table, dto.FilterQuery{Currency: dto.CurrencyUSD}, FilterOptions{LKRPerUSD: 200})

	require.Len(t, usd.Rows, 3)
	first := usd.Rows[0]
	assert.Equal(t, dto.CurrencyUSD, first.Currency)
	assert.InDelta(t, 0.5, first.Revenue.Float64, 1e-9)
	assert.InDelta(t, 0.025, first.EPS.Float64, 1e-9)
	assert.InDelta(t, 25.0, first.GrossProfitMargin.Float64, 1e-9, "ratios are currency independent")

	// the input table is untouched
	assert.Equal(t, dto.CurrencyLKR, table.Rows[0].Currency)
	assert.InDelta(t, 100.0, table.Rows[0].Revenue.Float64, 1e-9)

	back := Filter(usd, dto.FilterQuery{Currency: dto.CurrencyLKR}, FilterOptions{LKRPerUSD: 200})
	assert.InDelta(t, 100.0, back.Rows[0].Revenue.Float64, 1e-9)
}

func TestFilterShareholdersByYear(t *testing.T) {
	table := NormalizeDataset(sampleRecords(), []dto.ShareholderRecord{
		{Year: 2021, Name: "A", OwnershipPercentage: 5},
		{Year: 2022, Name: "B", OwnershipPercentage: 6},
	})

	filtered := Filter(table, dto.FilterQuery{Years: []int{2022}}, FilterOptions{})

	require.Len(t, filtered.Shareholders, 1)
	assert.Equal(t, "B", filtered.Shareholders[0].Name)
}

func TestParseRawRows(t *testing.T) {
	raw := []dto.RawRow{
		{"Year": "2021", "Revenue": "1,250.5", "EPS": "abc", "Currency": "usd"},
		{"Year": "2022.0", "Net Profit": "12"},
		{"Year": "twenty", "Revenue": "1"},
		{"Year": "2023.5"},
	}

	records, skipped := ParseRawRows(raw)

	assert.Equal(t, 2, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, 2021, records[0].Year)
	assert.Equal(t, null.FloatFrom(1250.5), records[0].Revenue)
	assert.False(t, records[0].EPS.Valid)
	assert.Equal(t, dto.CurrencyUSD, records[0].Currency)
	assert.Equal(t, dto.PeriodAnnual, records[0].Period)
	assert.Equal(t, 2022, records[1].Year)
	assert.Equal(t, null.FloatFrom(12), records[1].NetProfit)
	assert.Equal(t, dto.SourceSample, records[0].Source, "no source column")
}

func TestParseRawRowsKeepsSourceColumn(t *testing.T) {
	raw := []dto.RawRow{
		{"Year": "2021", "Source": "Extracted"},
		{"Year": "2022", "Source": "Sample"},
		{"Year": "2023", "Source": ""},
	}

	records, skipped := ParseRawRows(raw)

	assert.Zero(t, skipped)
	require.Len(t, records, 3)
	assert.Equal(t, dto.SourceExtracted, records[0].Source)
	assert.Equal(t, dto.SourceSample, records[1].Source)
	assert.Equal(t, dto.SourceSample, records[2].Source)
}
