package utils

import (
	"testing"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/stretchr/testify/assert"
)

func TestExtractMetrics(t *testing.T) {
	text := `
		JOHN KEELLS HOLDINGS PLC
		Group Revenue Rs. 276,640 million
		Gross Profit 62,315
		Profit after tax 12,450.75
		Earnings per share 8.54
		Net asset per share 152.30
	`

	metrics := ExtractMetrics(text)

	assert.Equal(t, 276640.0, metrics[dto.MetricRevenue])
	assert.Equal(t, 62315.0, metrics[dto.MetricGrossProfit])
	assert.Equal(t, 12450.75, metrics[dto.MetricNetProfit])
	assert.Equal(t, 8.54, metrics[dto.MetricEPS])
	assert.Equal(t, 152.30, metrics[dto.MetricNetAssetPerShare])
	_, ok := metrics[dto.MetricOperatingExpenses]
	assert.False(t, ok)
}

func TestExtractMetricsSkipsImplausibleValues(t *testing.T) {
	// The first revenue figure is out of range, the labelled one is not.
	text := "Revenue growth 2,500,000 units\nRevenue: 168.5"

	metrics := ExtractMetrics(text)

	assert.Equal(t, 168.5, metrics[dto.MetricRevenue])
}

func TestExtractMetricsNoMatches(t *testing.T) {
	assert.Empty(t, ExtractMetrics("Chairman's message\nOur people are our strength."))
}

func TestDetectYear(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		hint     int
		filename string
		want     int
	}{
		{"hint wins", []string{"Annual Report 2021"}, 2022, "", 2022},
		{"invalid hint ignored", []string{"Annual Report 2021"}, 2031, "", 2021},
		{"annual report label", []string{"JKH\nAnnual Report\n2023"}, 0, "", 2023},
		{"two digit fiscal year", []string{"Integrated report for 2022/23"}, 0, "", 2023},
		{"year ended month", []string{"for the Year Ended March 2020"}, 0, "", 2020},
		{"date string", []string{"Dated 31/03/2019"}, 0, "", 2019},
		{"out of range label skipped", []string{"Annual Report 2015", "FY 2022"}, 0, "", 2022},
		{"earlier page wins", []string{"For the period ended March 2021", "Annual Report 2023"}, 0, "", 2021},
		{"label beats earlier date", []string{"Dated 31/03/2019", "Annual Report 2023"}, 0, "", 2023},
		{"day first date on later page", []string{"Printed 2020-06-30", "Signed 30/06/2022"}, 0, "", 2022},
		{"filename fallback", []string{"no dates here"}, 0, "jkh_ar_2021.pdf", 2021},
		{"current year capped", nil, 0, "report.pdf", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectYear(tt.pages, tt.hint, tt.filename, 2026))
		})
	}
}

func TestDetectYearOnlyScansLeadingPages(t *testing.T) {
	pages := make([]string, 12)
	pages[11] = "Annual Report 2020"

	assert.Equal(t, 2023, DetectYear(pages, 0, "", 2023))
}

func TestYearFromFilename(t *testing.T) {
	y, ok := YearFromFilename("Annual-Report-2022-23.pdf")
	assert.True(t, ok)
	assert.Equal(t, 2022, y)

	_, ok = YearFromFilename("AR2017.pdf")
	assert.False(t, ok)
}

func TestExtractShareholders(t *testing.T) {
	text := `
		Twenty Major Shareholders
		1 Melstacorp PLC 123,456,789 17.50
		2. Employees Provident Fund 98,765,432 12.30%
		Share price 150.00
		Total 100.00
		3 Bank of Ceylon 5,000,000 4.20
	`

	holders := ExtractShareholders(text, 2023)

	// "Share price" is over 100 and Bank of Ceylon sits after the section ends.
	assert.Len(t, holders, 2)
	assert.Equal(t, "Melstacorp PLC", holders[0].Name)
	assert.Equal(t, 17.50, holders[0].OwnershipPercentage)
	assert.Equal(t, 2023, holders[0].Year)
	assert.Equal(t, "Employees Provident Fund", holders[1].Name)
	assert.Equal(t, 12.30, holders[1].OwnershipPercentage)
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount("1,234.50")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)

	_, ok = ParseAmount(",")
	assert.False(t, ok)
}
