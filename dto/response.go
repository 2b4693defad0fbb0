package dto

import "github.com/guregu/null/v6"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// FileStatus is the outcome of processing one uploaded file.
type FileStatus string

const (
	FileExtracted FileStatus = "extracted"
	FileEstimated FileStatus = "estimated"
	FileFailed    FileStatus = "failed"
)

// FileResult reports what happened to one uploaded file.
type FileResult struct {
	Filename     string     `json:"filename"`
	Status       FileStatus `json:"status"`
	Year         int        `json:"year,omitempty"`
	MetricsFound []Metric   `json:"metrics_found,omitempty"`
	UsedOCR      bool       `json:"used_ocr,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// ExtractionResult is the outcome of extracting one document. Records is
// never empty; when nothing could be read it holds an estimated record and
// Failure says why.
type ExtractionResult struct {
	Year         int
	Records      []FinancialRecord
	Shareholders []ShareholderRecord
	MetricsFound []Metric
	Source       Source
	UsedOCR      bool
	Failure      error
}

// Insight is one narrative finding.
type Insight struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Summary is the executive summary of a dataset.
type Summary struct {
	Year     int    `json:"year,omitempty"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// MetricCard is a headline number with its change versus the previous year.
type MetricCard struct {
	Metric    Metric     `json:"metric"`
	Label     string     `json:"label"`
	Year      int        `json:"year"`
	Value     null.Float `json:"value"`
	Display   string     `json:"display"`
	Change    null.Float `json:"change"`
	ChangeFmt string     `json:"change_display"`
	Color     string     `json:"color"`
}

// DatasetResponse is the analysed view of the current dataset.
type DatasetResponse struct {
	BatchID  string       `json:"batch_id,omitempty"`
	Filter   FilterQuery  `json:"filter"`
	Table    Table        `json:"table"`
	Years    []int        `json:"years"`
	Cards    []MetricCard `json:"cards"`
	Insights []Insight    `json:"insights"`
	Summary  Summary      `json:"summary"`
	Charts   []Chart      `json:"charts"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Files    []FileResult    `json:"files"`
	Dataset  DatasetResponse `json:"dataset"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ForecastSeries is a projected metric.
type ForecastSeries struct {
	Metric           Metric     `json:"metric"`
	Label            string     `json:"label"`
	Method           string     `json:"method"`
	HistoricalYears  []int      `json:"historical_years"`
	HistoricalValues []float64  `json:"historical_values"`
	Years            []int      `json:"years"`
	Values           []float64  `json:"values"`
	Lower            []float64  `json:"lower,omitempty"`
	Upper            []float64  `json:"upper,omitempty"`
	GrowthRate       null.Float `json:"growth_rate"`
	CAGR             null.Float `json:"cagr"`
	Note             string     `json:"note"`
}

// Forecast methods
const (
	MethodARIMA        = "arima(1,1,0)"
	MethodMedianGrowth = "median_growth"
)
