package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	OCREnabled        bool
	MaxFileSize       int64
	SnapshotPath      string
	CompanyName       string
	LogLevel          string
	CORSAllowOrigins  []string
	Analysis          *Analysis
}

// Analysis holds the tunables of the processing and analysis layers.
type Analysis struct {
	Currency   CurrencyConfig  `toml:"currency"`
	Benchmarks BenchmarkConfig `toml:"benchmarks"`
	Forecast   ForecastConfig  `toml:"forecast"`
}

// CurrencyConfig holds the single fixed exchange rate.
type CurrencyConfig struct {
	LKRPerUSD float64 `toml:"lkr_per_usd"`
}

// BenchmarkConfig holds the industry reference values used by insights.
type BenchmarkConfig struct {
	GrossMargin      float64 `toml:"gross_margin"`
	NetMargin        float64 `toml:"net_margin"`
	NetAssetPerShare float64 `toml:"net_asset_per_share"`
}

// ForecastConfig bounds forecast requests.
type ForecastConfig struct {
	DefaultPeriods int     `toml:"default_periods"`
	MaxPeriods     int     `toml:"max_periods"`
	FallbackGrowth float64 `toml:"fallback_growth"`
}

// DefaultAnalysis returns the built-in analysis settings.
func DefaultAnalysis() *Analysis {
	return &Analysis{
		Currency: CurrencyConfig{LKRPerUSD: 200},
		Benchmarks: BenchmarkConfig{
			GrossMargin:      24.5,
			NetMargin:        12.0,
			NetAssetPerShare: 85.0,
		},
		Forecast: ForecastConfig{
			DefaultPeriods: 4,
			MaxPeriods:     10,
			FallbackGrowth: 0.05,
		},
	}
}

// LoadAnalysis reads a TOML file over the defaults. A missing file yields the defaults.
func LoadAnalysis(path string) (*Analysis, error) {
	a := DefaultAnalysis()
	if path == "" {
		return a, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return a, nil
		}
		return nil, fmt.Errorf("read analysis config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parse analysis config %s: %w", path, err)
	}
	return a, nil
}

// Validate rejects settings the analysis layers cannot work with.
func (a *Analysis) Validate() error {
	if a.Currency.LKRPerUSD <= 0 {
		return errors.New("currency.lkr_per_usd must be positive")
	}
	if a.Forecast.MaxPeriods < 1 {
		return errors.New("forecast.max_periods must be at least 1")
	}
	if a.Forecast.DefaultPeriods < 1 || a.Forecast.DefaultPeriods > a.Forecast.MaxPeriods {
		return fmt.Errorf("forecast.default_periods must be within 1..%d", a.Forecast.MaxPeriods)
	}
	return nil
}

// LoadConfig reads environment variables, optionally from envFile, and the
// analysis TOML file they point to.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// a missing .env is fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	maxMB, err := strconv.ParseInt(getenvWithDefault("MAX_FILE_SIZE_MB", "50"), 10, 64)
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("invalid MAX_FILE_SIZE_MB: %q", os.Getenv("MAX_FILE_SIZE_MB"))
	}

	ocrEnabled, err := strconv.ParseBool(getenvWithDefault("OCR_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_ENABLED: %w", err)
	}

	analysis, err := LoadAnalysis(os.Getenv("ANALYSIS_CONFIG"))
	if err != nil {
		return nil, err
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	return &Config{
		ServerPort:        getenvWithDefault("SERVER_PORT", "8080"),
		TesseractDataPath: getenvWithDefault("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata/"),
		OCREnabled:        ocrEnabled,
		MaxFileSize:       maxMB * 1024 * 1024,
		SnapshotPath:      getenvWithDefault("SNAPSHOT_PATH", "uploads/processed_data.json"),
		CompanyName:       getenvWithDefault("COMPANY_NAME", "John Keells"),
		LogLevel:          getenvWithDefault("LOG_LEVEL", "info"),
		CORSAllowOrigins:  splitList(getenvWithDefault("CORS_ALLOW_ORIGINS", "*")),
		Analysis:          analysis,
	}, nil
}

func getenvWithDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
