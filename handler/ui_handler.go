package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/service"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageNames = []string{"dashboard", "upload", "insights", "forecast", "export"}

// forecastMetrics are the metrics offered on the forecast page.
var forecastMetrics = []dto.Metric{
	dto.MetricRevenue,
	dto.MetricEPS,
	dto.MetricNetProfit,
	dto.MetricGrossProfitMargin,
	dto.MetricNetAssetPerShare,
}

const (
	uiDefaultPeriods = 3
	uiMaxPeriods     = 5
)

// pageData is the request-scoped view model handed to every template.
type pageData struct {
	Title       string
	Active      string
	Company     string
	Query       dto.FilterQuery
	QueryString string
	Dataset     *dto.DatasetResponse
	Upload      *dto.UploadResponse
	Forecast    *dto.ForecastSeries
	Metrics     []dto.Metric
	Metric      dto.Metric
	Periods     int
	MaxPeriods  int
	Error       string
	NoData      bool
}

// UIHandler renders the server-side dashboard.
type UIHandler struct {
	dashboard   *service.DashboardService
	maxFileSize int64
	company     string
	pages       map[string]*template.Template
	log         *zap.Logger
}

func NewUIHandler(dashboard *service.DashboardService, maxFileSize int64, company string, log *zap.Logger) (*UIHandler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &UIHandler{
		dashboard:   dashboard,
		maxFileSize: maxFileSize,
		company:     company,
		pages:       pages,
		log:         log,
	}, nil
}

var templateFuncs = template.FuncMap{
	"currency":   utils.FormatCurrency,
	"percent":    utils.FormatPercentage,
	"signed":     utils.FormatSignedPercentage,
	"trendColor": utils.TrendColor,
	"number": func(v null.Float) string {
		if !v.Valid {
			return "N/A"
		}
		return strconv.FormatFloat(v.Float64, 'f', 2, 64)
	},
	"float": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"html":  func(s string) template.HTML { return template.HTML(s) },
	"hasYear": func(years []int, y int) bool {
		for _, v := range years {
			if v == y {
				return true
			}
		}
		return false
	},
	"exportURL": func(format string, q dto.FilterQuery) string {
		v := encodeFilterQuery(q)
		v.Set("format", format)
		return "/api/export?" + v.Encode()
	},
	"index1": func(xs []float64, i int) string {
		if i < len(xs) {
			return strconv.FormatFloat(xs[i], 'f', 2, 64)
		}
		return ""
	},
}

func loadPages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (h *UIHandler) render(c *gin.Context, status int, page string, data pageData) {
	data.Active = page
	data.Company = h.company
	if data.QueryString == "" {
		if qs := encodeFilterQuery(data.Query).Encode(); qs != "" {
			data.QueryString = "?" + qs
		}
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(c.Writer, "layout", data); err != nil {
		h.log.Error("template render failed", zap.String("page", page), zap.Error(err))
	}
}

// loadDataset fills data with the filtered dataset. It reports false when the
// page was already rendered with an error.
func (h *UIHandler) loadDataset(c *gin.Context, page string, data *pageData) bool {
	q, err := parseFilterQuery(c)
	if err != nil {
		data.Error = err.Error()
		h.render(c, http.StatusBadRequest, page, *data)
		return false
	}
	data.Query = q

	ds, err := h.dashboard.Dataset(q)
	if errors.Is(err, dto.ErrNoDataset) {
		data.NoData = true
		h.render(c, http.StatusOK, page, *data)
		return false
	}
	if err != nil {
		h.log.Error("failed to load dataset", zap.Error(err))
		data.Error = "The stored dataset could not be read."
		h.render(c, http.StatusInternalServerError, page, *data)
		return false
	}
	data.Dataset = ds
	return true
}

// Dashboard handles GET /
func (h *UIHandler) Dashboard(c *gin.Context) {
	data := pageData{Title: "Financial Dashboard"}
	if !h.loadDataset(c, "dashboard", &data) {
		return
	}
	h.render(c, http.StatusOK, "dashboard", data)
}

// UploadForm handles GET /upload
func (h *UIHandler) UploadForm(c *gin.Context) {
	h.render(c, http.StatusOK, "upload", pageData{Title: "Upload Reports"})
}

// Upload handles POST /upload
func (h *UIHandler) Upload(c *gin.Context) {
	data := pageData{Title: "Upload Reports"}

	req, err := bindUpload(c, h.maxFileSize)
	if err != nil {
		status, _ := classify(err)
		data.Error = err.Error()
		h.render(c, status, "upload", data)
		return
	}

	resp, err := h.dashboard.Upload(c.Request.Context(), req)
	if err != nil {
		status, _ := classify(err)
		data.Error = err.Error()
		h.render(c, status, "upload", data)
		return
	}

	data.Upload = resp
	h.render(c, http.StatusOK, "upload", data)
}

// Insights handles GET /insights
func (h *UIHandler) Insights(c *gin.Context) {
	data := pageData{Title: "Insights"}
	if !h.loadDataset(c, "insights", &data) {
		return
	}
	h.render(c, http.StatusOK, "insights", data)
}

// Forecast handles GET /forecast
func (h *UIHandler) Forecast(c *gin.Context) {
	data := pageData{
		Title:      "Forecast",
		Metrics:    forecastMetrics,
		Metric:     dto.MetricRevenue,
		Periods:    uiDefaultPeriods,
		MaxPeriods: uiMaxPeriods,
	}
	if !h.loadDataset(c, "forecast", &data) {
		return
	}

	if m, ok := dto.ParseMetric(c.DefaultQuery("metric", string(dto.MetricRevenue))); ok {
		data.Metric = m
	}
	if p, err := strconv.Atoi(c.Query("periods")); err == nil && p >= 1 && p <= uiMaxPeriods {
		data.Periods = p
	}

	series, err := h.dashboard.Forecast(dto.ForecastRequest{
		Metric:   string(data.Metric),
		Periods:  data.Periods,
		Years:    data.Query.Years,
		Industry: data.Query.Industry,
		Currency: data.Query.Currency,
	})
	if err != nil {
		status, _ := classify(err)
		data.Error = err.Error()
		h.render(c, status, "forecast", data)
		return
	}
	data.Forecast = series
	h.render(c, http.StatusOK, "forecast", data)
}

// Export handles GET /export
func (h *UIHandler) Export(c *gin.Context) {
	data := pageData{Title: "Export Data"}
	if !h.loadDataset(c, "export", &data) {
		return
	}
	h.render(c, http.StatusOK, "export", data)
}
