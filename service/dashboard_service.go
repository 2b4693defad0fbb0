package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

// DashboardOptions holds the settings the dashboard layers share.
type DashboardOptions struct {
	Filter         FilterOptions
	DefaultPeriods int
}

// DashboardService runs uploads through extraction and processing and
// serves analysed views of the stored dataset. It keeps no per-user state;
// every call reads the snapshot afresh.
type DashboardService struct {
	extractor  *ExtractorService
	store      *SnapshotStore
	insights   *InsightService
	forecaster *Forecaster
	opts       DashboardOptions
	log        *zap.Logger
	now        func() time.Time
}

func NewDashboardService(
	extractor *ExtractorService,
	store *SnapshotStore,
	insights *InsightService,
	forecaster *Forecaster,
	opts DashboardOptions,
	log *zap.Logger,
) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultPeriods <= 0 {
		opts.DefaultPeriods = 4
	}
	return &DashboardService{
		extractor:  extractor,
		store:      store,
		insights:   insights,
		forecaster: forecaster,
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Upload extracts every file, replaces the stored dataset with the result and
// returns the per-file outcome with the unfiltered view.
func (s *DashboardService) Upload(ctx context.Context, req *dto.UploadRequest) (*dto.UploadResponse, error) {
	resp := &dto.UploadResponse{}
	merged := newDatasetMerger()

	for _, fh := range req.Files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", dto.ErrCanceled, err)
		}

		result := dto.FileResult{Filename: fh.Filename}
		if !dto.IsPDF(fh.Filename) {
			result.Status = dto.FileFailed
			result.Error = "unsupported file type, expected .pdf"
			resp.Files = append(resp.Files, result)
			continue
		}

		data, err := readUpload(fh)
		if err != nil {
			s.log.Warn("failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
			result.Status = dto.FileFailed
			result.Error = err.Error()
			resp.Files = append(resp.Files, result)
			continue
		}

		hint, _ := utils.YearFromFilename(fh.Filename)
		ext := s.extractor.Extract(ctx, dto.Document{Filename: fh.Filename, Data: data, Password: req.Password}, hint)
		merged.Add(ext)

		result.Year = ext.Year
		result.MetricsFound = ext.MetricsFound
		result.UsedOCR = ext.UsedOCR
		result.Status = dto.FileExtracted
		if ext.Source == dto.SourceSample {
			result.Status = dto.FileEstimated
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%s: no financial metrics could be read, figures for %d are estimated", fh.Filename, ext.Year))
			if ext.Failure != nil {
				result.Error = ext.Failure.Error()
			}
		}
		resp.Files = append(resp.Files, result)
	}

	if merged.Empty() {
		reasons := make([]string, 0, len(resp.Files))
		for _, f := range resp.Files {
			reasons = append(reasons, f.Filename+": "+f.Error)
		}
		return nil, fmt.Errorf("%w: %s", dto.ErrNoValidFiles, strings.Join(reasons, "; "))
	}

	snap := dto.Snapshot{
		BatchID:   uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Table:     NormalizeDataset(merged.Records(), merged.Shareholders()),
	}
	for _, f := range resp.Files {
		if f.Status != dto.FileFailed {
			src := dto.SourceExtracted
			if f.Status == dto.FileEstimated {
				src = dto.SourceSample
			}
			snap.Files = append(snap.Files, dto.SnapshotFile{Filename: f.Filename, Year: f.Year, Source: src})
		}
	}

	if err := s.store.Save(snap); err != nil {
		return nil, err
	}

	s.log.Info("upload processed",
		zap.String("batch_id", snap.BatchID),
		zap.Int("files", len(req.Files)),
		zap.Int("rows", len(snap.Table.Rows)))

	resp.Dataset = s.view(snap, dto.FilterQuery{})
	return resp, nil
}

// Dataset returns the stored dataset filtered by q with fresh analysis.
func (s *DashboardService) Dataset(q dto.FilterQuery) (*dto.DatasetResponse, error) {
	snap, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	view := s.view(snap, q)
	return &view, nil
}

// Forecast projects a metric of the filtered dataset.
func (s *DashboardService) Forecast(req dto.ForecastRequest) (*dto.ForecastSeries, error) {
	snap, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if req.Metric == "" {
		req.Metric = string(dto.MetricRevenue)
	}
	if req.Periods == 0 {
		req.Periods = s.opts.DefaultPeriods
	}
	t := Filter(snap.Table, req.Filter(), s.opts.Filter)
	return s.forecaster.Forecast(t, req.Metric, req.Periods)
}

// Export renders the filtered dataset for download.
func (s *DashboardService) Export(q dto.FilterQuery, format dto.ExportFormat) (ExportPayload, error) {
	snap, err := s.store.Load()
	if err != nil {
		return ExportPayload{}, err
	}
	return Export(Filter(snap.Table, q, s.opts.Filter), format)
}

func (s *DashboardService) view(snap dto.Snapshot, q dto.FilterQuery) dto.DatasetResponse {
	t := Filter(snap.Table, q, s.opts.Filter)
	return dto.DatasetResponse{
		BatchID:  snap.BatchID,
		Filter:   q,
		Table:    t,
		Years:    snap.Table.Years(),
		Cards:    KeyMetrics(t),
		Insights: s.insights.Insights(t),
		Summary:  s.insights.Summary(t),
		Charts:   BuildCharts(t),
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fh.Filename, err)
	}
	return data, nil
}

// datasetMerger combines extraction results of one batch. Per year an
// extracted record beats an estimated one; between records of the same
// source, later values overwrite earlier ones field by field.
type datasetMerger struct {
	order   []int
	records map[int]*dto.FinancialRecord
	holders map[int][]dto.ShareholderRecord
	hsource map[int]dto.Source
}

func newDatasetMerger() *datasetMerger {
	return &datasetMerger{
		records: make(map[int]*dto.FinancialRecord),
		holders: make(map[int][]dto.ShareholderRecord),
		hsource: make(map[int]dto.Source),
	}
}

func (m *datasetMerger) Add(res dto.ExtractionResult) {
	for _, rec := range res.Records {
		existing, ok := m.records[rec.Year]
		switch {
		case !ok:
			r := rec
			m.records[rec.Year] = &r
			m.order = append(m.order, rec.Year)
		case existing.Source == dto.SourceSample && rec.Source == dto.SourceExtracted:
			r := rec
			m.records[rec.Year] = &r
		case existing.Source == dto.SourceExtracted && rec.Source == dto.SourceSample:
			// keep the extracted figures
		default:
			for _, metric := range dto.BaseMetrics {
				if v, _ := rec.Value(metric); v.Valid {
					existing.Set(metric, v)
				}
			}
		}
	}

	if len(res.Shareholders) == 0 {
		return
	}
	year := res.Shareholders[0].Year
	prev, seen := m.hsource[year]
	if !seen || prev == dto.SourceSample || res.Source == dto.SourceExtracted {
		m.holders[year] = res.Shareholders
		m.hsource[year] = res.Source
	}
}

func (m *datasetMerger) Empty() bool {
	return len(m.records) == 0
}

func (m *datasetMerger) Records() []dto.FinancialRecord {
	out := make([]dto.FinancialRecord, 0, len(m.order))
	for _, y := range m.order {
		out = append(out, *m.records[y])
	}
	return out
}

func (m *datasetMerger) Shareholders() []dto.ShareholderRecord {
	var out []dto.ShareholderRecord
	for _, y := range m.order {
		out = append(out, m.holders[y]...)
	}
	return out
}
