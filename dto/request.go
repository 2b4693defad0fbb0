package dto

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// UploadRequest represents an annual report upload
type UploadRequest struct {
	Files    []*multipart.FileHeader `form:"files[]"`
	Password string                  `form:"password"`
}

// Validate performs basic validation on the request
func (r *UploadRequest) Validate(maxFileSize int64) error {
	if len(r.Files) == 0 {
		return ErrNoFiles
	}
	for _, f := range r.Files {
		if maxFileSize > 0 && f.Size > maxFileSize {
			return fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, f.Filename, maxFileSize)
		}
	}
	return nil
}

// IsPDF reports whether the filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Document is one uploaded report handed to the extractor.
type Document struct {
	Filename string
	Data     []byte
	Password string
}

// FilterQuery is the request-scoped view selection.
type FilterQuery struct {
	Years    []int    `json:"years" form:"years"`
	Industry string   `json:"industry" form:"industry"`
	Currency Currency `json:"currency" form:"currency"`
}

// ForecastRequest is the body of POST /api/forecast.
type ForecastRequest struct {
	Metric   string   `json:"metric"`
	Periods  int      `json:"periods"`
	Years    []int    `json:"years"`
	Industry string   `json:"industry"`
	Currency Currency `json:"currency"`
}

// Filter returns the filter part of the request.
func (r ForecastRequest) Filter() FilterQuery {
	return FilterQuery{Years: r.Years, Industry: r.Industry, Currency: r.Currency}
}

// ExportFormat is a supported download format.
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportExcel ExportFormat = "excel"
	ExportJSON  ExportFormat = "json"
)

// ParseExportFormat accepts csv, excel (or xlsx) and json.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return ExportCSV, nil
	case "excel", "xlsx":
		return ExportExcel, nil
	case "json":
		return ExportJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}
