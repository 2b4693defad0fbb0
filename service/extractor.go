package service

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

// minTextLength is the amount of non-space text below which a PDF is treated
// as scanned.
const minTextLength = 20

// TextRecognizer reads text from a page image.
type TextRecognizer interface {
	ExtractTextFromImage(img image.Image) (string, float64, error)
}

// ExtractorService pulls financial metrics out of annual report PDFs.
type ExtractorService struct {
	pdfProcessor PDFProcessor
	ocr          TextRecognizer
	log          *zap.Logger
	now          func() time.Time
}

// NewExtractorService wires the extractor. ocr may be nil to disable the
// scanned-document fallback.
func NewExtractorService(pdfProcessor PDFProcessor, ocr TextRecognizer, log *zap.Logger) *ExtractorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExtractorService{
		pdfProcessor: pdfProcessor,
		ocr:          ocr,
		log:          log,
		now:          time.Now,
	}
}

// Extract reads doc and returns at least one record. When nothing usable is
// found the record is estimated, Source is Sample and Failure explains why.
func (s *ExtractorService) Extract(ctx context.Context, doc dto.Document, hintYear int) dto.ExtractionResult {
	var readErr error

	pages, err := s.pdfProcessor.ExtractPages(doc.Data, doc.Password)
	if err != nil {
		s.log.Warn("pdf text extraction failed", zap.String("file", doc.Filename), zap.Error(err))
		readErr = err
	}

	usedOCR := false
	if textLength(pages) < minTextLength && s.ocr != nil && ctx.Err() == nil {
		s.log.Info("document has minimal text, attempting OCR", zap.String("file", doc.Filename))
		if ocrPages := s.ocrPages(ctx, doc); len(ocrPages) > 0 {
			pages = ocrPages
			usedOCR = true
			readErr = nil
		}
	}

	result := s.ExtractFromPages(pages, hintYear, doc.Filename)
	result.UsedOCR = usedOCR
	if readErr != nil && result.Source == dto.SourceSample {
		result.Failure = fmt.Errorf("%w: %w", dto.ErrExtractionFailure, readErr)
	}
	return result
}

// ExtractFromPages runs year detection and the metric patterns over page text.
// identifier names the document and seeds estimated data.
func (s *ExtractorService) ExtractFromPages(pages []string, hintYear int, identifier string) dto.ExtractionResult {
	year := utils.DetectYear(pages, hintYear, identifier, s.now().Year())
	text := strings.Join(pages, "\n")

	metrics := utils.ExtractMetrics(text)
	holders := utils.ExtractShareholders(text, year)

	if len(metrics) == 0 {
		s.log.Warn("no metrics found, using estimated data",
			zap.String("file", identifier), zap.Int("year", year))

		record, sampleHolders := GenerateEstimated(identifier, year)
		if len(holders) == 0 {
			holders = sampleHolders
		}
		return dto.ExtractionResult{
			Year:         year,
			Records:      []dto.FinancialRecord{record},
			Shareholders: holders,
			Source:       dto.SourceSample,
			Failure:      fmt.Errorf("%w: no metrics found in %s", dto.ErrExtractionFailure, identifier),
		}
	}

	b := newRecordBuilder()
	found := make([]dto.Metric, 0, len(metrics))
	for _, m := range dto.BaseMetrics {
		if v, ok := metrics[m]; ok {
			b.Upsert(year, m, v)
			found = append(found, m)
		}
	}

	s.log.Debug("metrics extracted",
		zap.String("file", identifier), zap.Int("year", year), zap.Int("count", len(found)))

	return dto.ExtractionResult{
		Year:         year,
		Records:      b.Records(),
		Shareholders: holders,
		MetricsFound: found,
		Source:       dto.SourceExtracted,
	}
}

func (s *ExtractorService) ocrPages(ctx context.Context, doc dto.Document) []string {
	images, err := s.pdfProcessor.ExtractImages(doc.Data, doc.Password)
	if err != nil || len(images) == 0 {
		s.log.Warn("failed to extract page images", zap.String("file", doc.Filename), zap.Error(err))
		return nil
	}

	var pages []string
	for i, img := range images {
		if ctx.Err() != nil {
			break
		}
		text, conf, err := s.ocr.ExtractTextFromImage(img)
		if err != nil {
			s.log.Warn("OCR failed for page", zap.String("file", doc.Filename), zap.Int("image", i), zap.Error(err))
			continue
		}
		s.log.Debug("page OCR done", zap.Int("image", i), zap.Float64("confidence", conf))
		pages = append(pages, text)
	}
	return pages
}

func textLength(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.Join(strings.Fields(p), ""))
	}
	return n
}

// recordBuilder collects metric values per year. Writing a metric for a
// year that already has a record overwrites that field in place.
type recordBuilder struct {
	byYear map[int]*dto.FinancialRecord
}

func newRecordBuilder() *recordBuilder {
	return &recordBuilder{byYear: make(map[int]*dto.FinancialRecord)}
}

func (b *recordBuilder) Upsert(year int, metric dto.Metric, value float64) {
	rec, ok := b.byYear[year]
	if !ok {
		rec = &dto.FinancialRecord{
			Year:     year,
			Period:   dto.PeriodAnnual,
			Industry: dto.IndustryAll,
			Currency: dto.CurrencyLKR,
			Source:   dto.SourceExtracted,
		}
		b.byYear[year] = rec
	}
	rec.Set(metric, null.FloatFrom(value))
}

func (b *recordBuilder) Records() []dto.FinancialRecord {
	out := make([]dto.FinancialRecord, 0, len(b.byYear))
	for _, rec := range b.byYear {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
