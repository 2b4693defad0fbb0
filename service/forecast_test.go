package service

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

func revenueTable(values ...float64) dto.Table {
	records := make([]dto.FinancialRecord, len(values))
	for i, v := range values {
		records[i] = dto.FinancialRecord{Year: 2019 + i, Revenue: null.FloatFrom(v)}
	}
	return Normalize(records)
}

func newTestForecaster() *Forecaster {
	return NewForecaster(ForecastOptions{MaxPeriods: 10, FallbackGrowth: 0.05}, nil)
}

func TestForecastARIMA(t *testing.T) {
	series, err := newTestForecaster().Forecast(revenueTable(100, 120, 130, 135), "revenue", 3)

	require.NoError(t, err)
	assert.Equal(t, dto.MethodARIMA, series.Method)
	assert.Equal(t, []int{2023, 2024, 2025}, series.Years)
	require.Len(t, series.Values, 3)
	assert.InDelta(t, 137.5, series.Values[0], 0.005)
	assert.InDelta(t, 138.75, series.Values[1], 0.005)
	assert.InDelta(t, 139.38, series.Values[2], 0.005)

	// band is ±1.96 population standard deviations (≈13.4048)
	require.Len(t, series.Lower, 3)
	require.Len(t, series.Upper, 3)
	assert.InDelta(t, 111.23, series.Lower[0], 0.01)
	assert.InDelta(t, 163.77, series.Upper[0], 0.01)
	for i := range series.Values {
		assert.LessOrEqual(t, series.Lower[i], series.Values[i])
		assert.GreaterOrEqual(t, series.Upper[i], series.Values[i])
	}
	assert.False(t, series.GrowthRate.Valid)
	assert.True(t, series.CAGR.Valid)
	assert.Equal(t, []float64{100, 120, 130, 135}, series.HistoricalValues)
}

func TestForecastFallsBackOnExplosiveSeries(t *testing.T) {
	series, err := newTestForecaster().Forecast(revenueTable(100, 110, 121), "Revenue", 2)

	require.NoError(t, err)
	assert.Equal(t, dto.MethodMedianGrowth, series.Method)
	assert.InDelta(t, 10.0, series.GrowthRate.Float64, 1e-6)
	assert.InDelta(t, 133.1, series.Values[0], 0.005)
	assert.InDelta(t, 146.41, series.Values[1], 0.005)
	assert.Empty(t, series.Lower)
	assert.InDelta(t, 10.0, series.CAGR.Float64, 0.01)
}

func TestForecastFallsBackOnFlatSeries(t *testing.T) {
	series, err := newTestForecaster().Forecast(revenueTable(100, 100, 100), "revenue", 2)

	require.NoError(t, err)
	assert.Equal(t, dto.MethodMedianGrowth, series.Method)
	assert.Equal(t, []float64{100, 100}, series.Values)
}

func TestForecastDefaultGrowthWithoutPositiveHistory(t *testing.T) {
	series, err := newTestForecaster().Forecast(revenueTable(0, 0, 0), "revenue", 1)

	require.NoError(t, err)
	assert.Equal(t, dto.MethodMedianGrowth, series.Method)
	assert.InDelta(t, 5.0, series.GrowthRate.Float64, 1e-9)
	assert.False(t, series.CAGR.Valid)
}

func TestForecastSkipsMissingValues(t *testing.T) {
	table := Normalize([]dto.FinancialRecord{
		{Year: 2019, Revenue: null.FloatFrom(100)},
		{Year: 2020},
		{Year: 2021, Revenue: null.FloatFrom(120)},
		{Year: 2022, Revenue: null.FloatFrom(130)},
	})

	series, err := newTestForecaster().Forecast(table, "revenue", 1)

	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2021, 2022}, series.HistoricalYears)
	assert.Equal(t, []int{2023}, series.Years)
}

func TestForecastErrors(t *testing.T) {
	f := newTestForecaster()

	_, err := f.Forecast(revenueTable(100, 110, 120), "market_share", 2)
	assert.ErrorIs(t, err, dto.ErrUnknownMetric)

	_, err = f.Forecast(revenueTable(100, 110, 120), "revenue", 0)
	assert.ErrorIs(t, err, dto.ErrInvalidHorizon)

	_, err = f.Forecast(revenueTable(100, 110, 120), "revenue", 11)
	assert.ErrorIs(t, err, dto.ErrInvalidHorizon)

	_, err = f.Forecast(revenueTable(100, 110), "revenue", 2)
	assert.ErrorIs(t, err, dto.ErrInsufficientData)

	_, err = f.Forecast(dto.Table{}, "revenue", 2)
	assert.ErrorIs(t, err, dto.ErrInsufficientData)
}

func TestFitARIMA110(t *testing.T) {
	phi, err := fitARIMA110([]float64{100, 120, 130, 135})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, phi, 1e-9)

	_, err = fitARIMA110([]float64{100, 110, 121})
	assert.ErrorIs(t, err, errNonStationary)

	_, err = fitARIMA110([]float64{5, 5, 5})
	assert.ErrorIs(t, err, errZeroLagVariance)
}
