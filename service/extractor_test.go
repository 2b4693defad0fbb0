package service

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

type fakePDFProcessor struct {
	pages     []string
	pagesErr  error
	images    []image.Image
	imagesErr error
}

func (f *fakePDFProcessor) ExtractPages([]byte, string) ([]string, error) {
	return f.pages, f.pagesErr
}

func (f *fakePDFProcessor) ExtractImages([]byte, string) ([]image.Image, error) {
	return f.images, f.imagesErr
}

type fakeRecognizer struct {
	text  string
	calls int
}

func (f *fakeRecognizer) ExtractTextFromImage(image.Image) (string, float64, error) {
	f.calls++
	return f.text, 91.5, nil
}

const reportText = `JOHN KEELLS HOLDINGS PLC
Annual Report 2022
Revenue: 168.5
Gross Profit 40.2
Earnings per share 12.75`

func newTestExtractor(pdf PDFProcessor, ocr TextRecognizer) *ExtractorService {
	s := NewExtractorService(pdf, ocr, nil)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestExtractTextReport(t *testing.T) {
	s := newTestExtractor(&fakePDFProcessor{pages: []string{reportText}}, nil)

	res := s.Extract(context.Background(), dto.Document{Filename: "jkh.pdf"}, 0)

	assert.Equal(t, dto.SourceExtracted, res.Source)
	assert.NoError(t, res.Failure)
	assert.Equal(t, 2022, res.Year)
	assert.False(t, res.UsedOCR)
	assert.ElementsMatch(t, []dto.Metric{dto.MetricRevenue, dto.MetricGrossProfit, dto.MetricEPS}, res.MetricsFound)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, 2022, rec.Year)
	assert.Equal(t, 168.5, rec.Revenue.Float64)
	assert.Equal(t, 40.2, rec.GrossProfit.Float64)
	assert.Equal(t, 12.75, rec.EPS.Float64)
	assert.False(t, rec.NetProfit.Valid)
}

func TestExtractHintYearWins(t *testing.T) {
	s := newTestExtractor(&fakePDFProcessor{pages: []string{reportText}}, nil)

	res := s.Extract(context.Background(), dto.Document{Filename: "jkh.pdf"}, 2020)

	assert.Equal(t, 2020, res.Year)
	assert.Equal(t, 2020, res.Records[0].Year)
}

func TestExtractUnreadableDocumentIsEstimated(t *testing.T) {
	s := newTestExtractor(&fakePDFProcessor{pagesErr: errors.New("malformed xref")}, nil)

	res := s.Extract(context.Background(), dto.Document{Filename: "report_2021.pdf"}, 0)

	assert.Equal(t, dto.SourceSample, res.Source)
	assert.ErrorIs(t, res.Failure, dto.ErrExtractionFailure)
	assert.Equal(t, 2021, res.Year)
	require.Len(t, res.Records, 1)
	assert.Equal(t, dto.SourceSample, res.Records[0].Source)
	assert.NotEmpty(t, res.Shareholders)
}

func TestExtractGarbageBytesWithRealProcessor(t *testing.T) {
	s := newTestExtractor(NewPDFProcessor(), nil)

	res := s.Extract(context.Background(), dto.Document{Filename: "broken.pdf", Data: []byte("definitely not a pdf")}, 0)

	assert.Equal(t, dto.SourceSample, res.Source)
	assert.ErrorIs(t, res.Failure, dto.ErrExtractionFailure)
	assert.Equal(t, 2024, res.Year, "current year is capped at the last accepted year")
	require.Len(t, res.Records, 1)
}

func TestExtractFallsBackToOCR(t *testing.T) {
	pdf := &fakePDFProcessor{
		pages:  []string{"  "},
		images: []image.Image{image.NewGray(image.Rect(0, 0, 4, 4)), image.NewGray(image.Rect(0, 0, 4, 4))},
	}
	ocr := &fakeRecognizer{text: reportText}
	s := newTestExtractor(pdf, ocr)

	res := s.Extract(context.Background(), dto.Document{Filename: "scan.pdf"}, 0)

	assert.Equal(t, 2, ocr.calls)
	assert.True(t, res.UsedOCR)
	assert.Equal(t, dto.SourceExtracted, res.Source)
	assert.Equal(t, 2022, res.Year)
}

func TestExtractFromPagesWithoutMetrics(t *testing.T) {
	s := newTestExtractor(&fakePDFProcessor{}, nil)

	res := s.ExtractFromPages([]string{"Annual Report 2023\nChairman's message"}, 0, "jkh.pdf")

	assert.Equal(t, dto.SourceSample, res.Source)
	assert.Equal(t, 2023, res.Year)
	assert.ErrorIs(t, res.Failure, dto.ErrExtractionFailure)
	assert.Empty(t, res.MetricsFound)
}

func TestRecordBuilderUpsertOverwrites(t *testing.T) {
	b := newRecordBuilder()
	b.Upsert(2022, dto.MetricRevenue, 10)
	b.Upsert(2021, dto.MetricRevenue, 8)
	b.Upsert(2022, dto.MetricRevenue, 12)
	b.Upsert(2022, dto.MetricEPS, 1.5)

	records := b.Records()

	require.Len(t, records, 2)
	assert.Equal(t, 2021, records[0].Year)
	assert.Equal(t, 12.0, records[1].Revenue.Float64)
	assert.Equal(t, 1.5, records[1].EPS.Float64)
}
