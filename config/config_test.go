package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "MAX_FILE_SIZE_MB", "OCR_ENABLED", "SNAPSHOT_PATH", "ANALYSIS_CONFIG", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSize)
	assert.True(t, cfg.OCREnabled)
	assert.Equal(t, "uploads/processed_data.json", cfg.SnapshotPath)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 200.0, cfg.Analysis.Currency.LKRPerUSD)
	assert.Equal(t, 4, cfg.Analysis.Forecast.DefaultPeriods)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	analysisPath := filepath.Join(dir, "analysis.toml")
	require.NoError(t, os.WriteFile(analysisPath, []byte(`
[currency]
lkr_per_usd = 300.0

[benchmarks]
gross_margin = 30.0
`), 0o644))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SERVER_PORT=9090\nOCR_ENABLED=false\nANALYSIS_CONFIG="+analysisPath+"\n"), 0o644))

	for _, k := range []string{"SERVER_PORT", "OCR_ENABLED", "ANALYSIS_CONFIG"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig(envPath)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.False(t, cfg.OCREnabled)
	assert.Equal(t, 300.0, cfg.Analysis.Currency.LKRPerUSD)
	assert.Equal(t, 30.0, cfg.Analysis.Benchmarks.GrossMargin)
	// untouched keys keep their defaults
	assert.Equal(t, 12.0, cfg.Analysis.Benchmarks.NetMargin)
}

func TestAnalysisValidate(t *testing.T) {
	a := DefaultAnalysis()
	require.NoError(t, a.Validate())

	a.Currency.LKRPerUSD = 0
	assert.Error(t, a.Validate())

	a = DefaultAnalysis()
	a.Forecast.DefaultPeriods = 11
	assert.Error(t, a.Validate())
}

func TestInvalidMaxFileSize(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE_MB", "lots")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
