package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/service"
)

// ReportHandler serves the JSON API.
type ReportHandler struct {
	dashboard   *service.DashboardService
	maxFileSize int64
	log         *zap.Logger
}

func NewReportHandler(dashboard *service.DashboardService, maxFileSize int64, log *zap.Logger) *ReportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{
		dashboard:   dashboard,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Upload handles POST /api/upload
func (h *ReportHandler) Upload(c *gin.Context) {
	req, err := bindUpload(c, h.maxFileSize)
	if err != nil {
		sendError(c, h.log, "invalid upload", err)
		return
	}

	h.log.Info("processing upload", zap.Int("files", len(req.Files)))

	resp, err := h.dashboard.Upload(c.Request.Context(), req)
	if err != nil {
		sendError(c, h.log, "failed to process upload", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Filter handles GET /api/filter
func (h *ReportHandler) Filter(c *gin.Context) {
	q, err := parseFilterQuery(c)
	if err != nil {
		sendError(c, h.log, "invalid filter", err)
		return
	}

	resp, err := h.dashboard.Dataset(q)
	if err != nil {
		sendError(c, h.log, "failed to load dataset", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Forecast handles POST /api/forecast
func (h *ReportHandler) Forecast(c *gin.Context) {
	var req dto.ForecastRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, h.log, "invalid forecast request", fmt.Errorf("%w: %w", dto.ErrInvalidFilter, err))
			return
		}
	}
	cur, err := parseCurrency(string(req.Currency))
	if err != nil {
		sendError(c, h.log, "invalid forecast request", err)
		return
	}
	req.Currency = cur

	series, err := h.dashboard.Forecast(req)
	if err != nil {
		sendError(c, h.log, "forecast failed", err)
		return
	}

	c.JSON(http.StatusOK, series)
}

// Export handles GET /api/export
func (h *ReportHandler) Export(c *gin.Context) {
	format, err := dto.ParseExportFormat(c.Query("format"))
	if err != nil {
		sendError(c, h.log, "invalid export format", err)
		return
	}
	q, err := parseFilterQuery(c)
	if err != nil {
		sendError(c, h.log, "invalid filter", err)
		return
	}

	payload, err := h.dashboard.Export(q, format)
	if err != nil {
		sendError(c, h.log, "export failed", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, payload.Filename))
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}

// Metrics handles GET /api/metrics
func (h *ReportHandler) Metrics(c *gin.Context) {
	type metricInfo struct {
		Name  dto.Metric `json:"name"`
		Label string     `json:"label"`
	}
	out := make([]metricInfo, len(dto.AllMetrics))
	for i, m := range dto.AllMetrics {
		out[i] = metricInfo{Name: m, Label: m.Label()}
	}
	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

// bindUpload parses the multipart form into a validated request.
func bindUpload(c *gin.Context, maxFileSize int64) (*dto.UploadRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse multipart form: %w", dto.ErrNoFiles, err)
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}

	req := &dto.UploadRequest{
		Files:    files,
		Password: c.PostForm("password"),
	}
	if err := req.Validate(maxFileSize); err != nil {
		return nil, err
	}
	return req, nil
}
