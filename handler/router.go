package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures the engine built by NewRouter.
type RouterOptions struct {
	CORSAllowOrigins   []string
	MaxMultipartMemory int64
}

// NewRouter wires the Gin engine with the API and UI routes.
func NewRouter(report *ReportHandler, ui *UIHandler, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(opts.CORSAllowOrigins)))

	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Annual Report Analytics",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/upload", report.Upload)
		api.GET("/filter", report.Filter)
		api.POST("/forecast", report.Forecast)
		api.GET("/export", report.Export)
		api.GET("/metrics", report.Metrics)
	}

	if ui != nil {
		r.GET("/", ui.Dashboard)
		r.GET("/upload", ui.UploadForm)
		r.POST("/upload", ui.Upload)
		r.GET("/insights", ui.Insights)
		r.GET("/forecast", ui.Forecast)
		r.GET("/export", ui.Export)
	}

	logger.Info("router initialized")
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.ExposeHeaders = []string{"Content-Disposition"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request completed", fields...)
	}
}
