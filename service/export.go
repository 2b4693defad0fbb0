package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/guregu/null/v6"
	"github.com/xuri/excelize/v2"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

const (
	dataSheet        = "Financial Data"
	shareholderSheet = "Shareholders"
	exportBaseName   = "financial_data"
)

// ExportPayload is a rendered download.
type ExportPayload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type exportColumn struct {
	header string
	value  func(dto.DerivedRecord) any
}

func nullable(v null.Float) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

var exportColumns = []exportColumn{
	{"Year", func(r dto.DerivedRecord) any { return r.Year }},
	{"Period", func(r dto.DerivedRecord) any { return string(r.Period) }},
	{"Revenue", func(r dto.DerivedRecord) any { return nullable(r.Revenue) }},
	{"Cost_of_Sales", func(r dto.DerivedRecord) any { return nullable(r.CostOfSales) }},
	{"Gross_Profit", func(r dto.DerivedRecord) any { return nullable(r.GrossProfit) }},
	{"Operating_Expenses", func(r dto.DerivedRecord) any { return nullable(r.OperatingExpenses) }},
	{"Operating_Profit", func(r dto.DerivedRecord) any { return nullable(r.OperatingProfit) }},
	{"Net_Profit", func(r dto.DerivedRecord) any { return nullable(r.NetProfit) }},
	{"EPS", func(r dto.DerivedRecord) any { return nullable(r.EPS) }},
	{"Net_Asset_Per_Share", func(r dto.DerivedRecord) any { return nullable(r.NetAssetPerShare) }},
	{"Gross_Profit_Margin", func(r dto.DerivedRecord) any { return nullable(r.GrossProfitMargin) }},
	{"Operating_Profit_Margin", func(r dto.DerivedRecord) any { return nullable(r.OperatingProfitMargin) }},
	{"Net_Profit_Margin", func(r dto.DerivedRecord) any { return nullable(r.NetProfitMargin) }},
	{"Revenue_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.RevenueYoYGrowth) }},
	{"Gross_Profit_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.GrossProfitYoYGrowth) }},
	{"Operating_Profit_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.OperatingProfitYoYGrowth) }},
	{"Net_Profit_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.NetProfitYoYGrowth) }},
	{"EPS_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.EPSYoYGrowth) }},
	{"Net_Asset_Per_Share_YoY_Growth", func(r dto.DerivedRecord) any { return nullable(r.NetAssetPerShareYoYGrowth) }},
	{"Industry", func(r dto.DerivedRecord) any { return r.Industry }},
	{"Currency", func(r dto.DerivedRecord) any { return string(r.Currency) }},
	{"Source", func(r dto.DerivedRecord) any { return string(r.Source) }},
}

// Export renders t in the requested format.
func Export(t dto.Table, format dto.ExportFormat) (ExportPayload, error) {
	switch format {
	case dto.ExportCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, t); err != nil {
			return ExportPayload{}, err
		}
		return ExportPayload{Filename: exportBaseName + ".csv", ContentType: "text/csv", Data: buf.Bytes()}, nil
	case dto.ExportExcel:
		data, err := ExcelWorkbook(t)
		if err != nil {
			return ExportPayload{}, err
		}
		return ExportPayload{
			Filename:    exportBaseName + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case dto.ExportJSON:
		data, err := json.MarshalIndent(t.Rows, "", "  ")
		if err != nil {
			return ExportPayload{}, err
		}
		return ExportPayload{Filename: exportBaseName + ".json", ContentType: "application/json", Data: data}, nil
	}
	return ExportPayload{}, fmt.Errorf("%w: %q", dto.ErrInvalidFormat, format)
}

// WriteCSV writes the rows of t with a header line. Nulls are empty cells.
func WriteCSV(w io.Writer, t dto.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c.header
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range t.Rows {
		line := make([]string, len(exportColumns))
		for i, c := range exportColumns {
			line[i] = csvCell(c.value(r))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// ExcelWorkbook renders t as an xlsx workbook with a data sheet, a
// shareholder sheet and a revenue chart.
func ExcelWorkbook(t dto.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1E3A8A"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, c := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(dataSheet, cell, c.header)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportColumns))
	f.SetCellStyle(dataSheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(dataSheet, "A", lastCol, 16)

	for i, r := range t.Rows {
		for j, c := range exportColumns {
			v := c.value(r)
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(dataSheet, cell, v)
		}
	}

	if len(t.Shareholders) > 0 {
		if _, err := f.NewSheet(shareholderSheet); err != nil {
			return nil, err
		}
		f.SetSheetRow(shareholderSheet, "A1", &[]any{"Year", "Shareholder_Name", "Ownership_Percentage"})
		f.SetCellStyle(shareholderSheet, "A1", "C1", headerStyle)
		f.SetColWidth(shareholderSheet, "B", "B", 36)
		for i, s := range t.Shareholders {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			f.SetSheetRow(shareholderSheet, cell, &[]any{s.Year, s.Name, s.OwnershipPercentage})
		}
	}

	if n := len(t.Rows); n > 0 {
		// columns A (Year) and C (Revenue)
		sheetRef := "'" + dataSheet + "'"
		err := f.AddChart(dataSheet, "A"+strconv.Itoa(n+4), &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       sheetRef + "!$C$1",
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetRef, n+1),
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", sheetRef, n+1),
			}},
			Title: []excelize.RichTextRun{{Text: "Revenue Trend"}},
		})
		if err != nil {
			return nil, fmt.Errorf("add revenue chart: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
