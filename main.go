package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/client"
	"github.com/Aashish23092/annual-report-analytics/config"
	"github.com/Aashish23092/annual-report-analytics/handler"
	"github.com/Aashish23092/annual-report-analytics/logger"
	"github.com/Aashish23092/annual-report-analytics/service"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	// Scanned reports fall back to Tesseract when it is enabled.
	var ocr service.TextRecognizer
	if cfg.OCREnabled {
		tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, logger.Named(baseLogger, "client.tesseract"))
		defer tesseractClient.Close()
		ocr = tesseractClient
		baseLogger.Info("ocr fallback enabled", zap.String("tessdata", cfg.TesseractDataPath))
	} else {
		baseLogger.Warn("ocr disabled, scanned reports will be estimated")
	}

	analysis := cfg.Analysis

	extractor := service.NewExtractorService(service.NewPDFProcessor(), ocr, logger.Named(baseLogger, "svc.extractor"))
	store := service.NewSnapshotStore(cfg.SnapshotPath, logger.Named(baseLogger, "svc.snapshot"))
	insights := service.NewInsightService(service.InsightOptions{
		CompanyName:          cfg.CompanyName,
		GrossMarginBenchmark: analysis.Benchmarks.GrossMargin,
		NetMarginBenchmark:   analysis.Benchmarks.NetMargin,
		NAPSBenchmark:        analysis.Benchmarks.NetAssetPerShare,
	})
	forecaster := service.NewForecaster(service.ForecastOptions{
		MaxPeriods:     analysis.Forecast.MaxPeriods,
		FallbackGrowth: analysis.Forecast.FallbackGrowth,
	}, logger.Named(baseLogger, "svc.forecast"))

	dashboard := service.NewDashboardService(extractor, store, insights, forecaster, service.DashboardOptions{
		Filter:         service.FilterOptions{LKRPerUSD: analysis.Currency.LKRPerUSD},
		DefaultPeriods: analysis.Forecast.DefaultPeriods,
	}, logger.Named(baseLogger, "svc.dashboard"))

	reportHandler := handler.NewReportHandler(dashboard, cfg.MaxFileSize, logger.Named(baseLogger, "handlers.api"))
	uiHandler, err := handler.NewUIHandler(dashboard, cfg.MaxFileSize, cfg.CompanyName, logger.Named(baseLogger, "handlers.ui"))
	if err != nil {
		baseLogger.Fatal("failed to load templates", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	engine := handler.NewRouter(reportHandler, uiHandler, logger.Named(baseLogger, "router"), handler.RouterOptions{
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		MaxMultipartMemory: 32 << 20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      engine,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("snapshot", store.Path()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
