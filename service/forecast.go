package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
	"github.com/Aashish23092/annual-report-analytics/utils"
)

// minForecastPoints is the fewest annual observations a forecast needs.
const minForecastPoints = 3

// bandZ scales the historical standard deviation into the ±95% band.
const bandZ = 1.96

var (
	errZeroLagVariance = errors.New("differenced series has zero lag variance")
	errNonStationary   = errors.New("AR coefficient outside the stationary region")
)

// ForecastOptions bounds and tunes forecasting.
type ForecastOptions struct {
	MaxPeriods     int
	FallbackGrowth float64
}

// Forecaster projects a metric forward with an ARIMA(1,1,0) model and falls
// back to median growth when the model cannot be fitted.
type Forecaster struct {
	opts ForecastOptions
	log  *zap.Logger
}

func NewForecaster(opts ForecastOptions, log *zap.Logger) *Forecaster {
	if opts.MaxPeriods <= 0 {
		opts.MaxPeriods = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Forecaster{opts: opts, log: log}
}

// Forecast projects metricName horizon years past the last annual row. It
// returns ErrUnknownMetric, ErrInvalidHorizon or ErrInsufficientData (all
// wrapped) instead of panicking.
func (f *Forecaster) Forecast(t dto.Table, metricName string, horizon int) (series *dto.ForecastSeries, err error) {
	defer func() {
		if r := recover(); r != nil {
			series, err = nil, fmt.Errorf("forecast %s: %v", metricName, r)
		}
	}()

	metric, ok := dto.ParseMetric(metricName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", dto.ErrUnknownMetric, metricName)
	}
	if horizon < 1 || horizon > f.opts.MaxPeriods {
		return nil, fmt.Errorf("%w: %d not in 1..%d", dto.ErrInvalidHorizon, horizon, f.opts.MaxPeriods)
	}

	var years []int
	var values []float64
	for _, r := range t.Annual() {
		v, _ := r.Value(metric)
		if v.Valid && !math.IsNaN(v.Float64) {
			years = append(years, r.Year)
			values = append(values, v.Float64)
		}
	}
	if len(values) < minForecastPoints {
		return nil, fmt.Errorf("%w: %s has %d annual values, need %d", dto.ErrInsufficientData, metric.Label(), len(values), minForecastPoints)
	}

	series = &dto.ForecastSeries{
		Metric:           metric,
		Label:            metric.Label(),
		HistoricalYears:  years,
		HistoricalValues: values,
	}
	last := years[len(years)-1]
	for h := 1; h <= horizon; h++ {
		series.Years = append(series.Years, last+h)
	}

	phi, fitErr := fitARIMA110(values)
	if fitErr == nil {
		series.Method = dto.MethodARIMA
		series.Values = projectARIMA110(values, phi, horizon)

		sd, _ := stats.StandardDeviationPopulation(values)
		for _, v := range series.Values {
			series.Lower = append(series.Lower, utils.Round2(v-bandZ*sd))
			series.Upper = append(series.Upper, utils.Round2(v+bandZ*sd))
		}
		series.Note = "The band is ±1.96 standard deviations of the history and is not a true confidence interval."
	} else {
		f.log.Info("ARIMA fit failed, using median growth",
			zap.String("metric", string(metric)), zap.Error(fitErr))

		g := f.medianGrowth(values)
		series.Method = dto.MethodMedianGrowth
		series.GrowthRate = null.FloatFrom(utils.RoundTo(g*100, 4))
		v := values[len(values)-1]
		for h := 0; h < horizon; h++ {
			v *= 1 + g
			series.Values = append(series.Values, utils.Round2(v))
		}
		series.Note = fmt.Sprintf("Median growth fallback (%s).", fitErr)
	}

	for i, v := range series.Values {
		series.Values[i] = utils.Round2(v)
	}
	series.CAGR = cagr(values[len(values)-1], series.Values[len(series.Values)-1], horizon)

	return series, nil
}

// fitARIMA110 estimates φ in Δy_t = φ·Δy_{t-1} + ε_t by conditional least
// squares on the first differences.
func fitARIMA110(y []float64) (float64, error) {
	d := diff(y)
	var num, den float64
	for t := 1; t < len(d); t++ {
		num += d[t] * d[t-1]
		den += d[t-1] * d[t-1]
	}
	if den == 0 {
		return 0, errZeroLagVariance
	}
	phi := num / den
	if math.Abs(phi) >= 1 || math.IsNaN(phi) {
		return 0, fmt.Errorf("%w: φ=%.3f", errNonStationary, phi)
	}
	return phi, nil
}

// projectARIMA110 iterates the differenced AR(1) and integrates back to levels.
func projectARIMA110(y []float64, phi float64, horizon int) []float64 {
	d := diff(y)
	step := d[len(d)-1]
	level := y[len(y)-1]

	out := make([]float64, horizon)
	for h := range out {
		step *= phi
		level += step
		out[h] = level
	}
	return out
}

func diff(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	d := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		d[i-1] = y[i] - y[i-1]
	}
	return d
}

// medianGrowth is the median of period-over-period ratios over positive
// previous values, or the configured default when there are none.
func (f *Forecaster) medianGrowth(y []float64) float64 {
	var ratios stats.Float64Data
	for i := 1; i < len(y); i++ {
		if y[i-1] > 0 {
			ratios = append(ratios, y[i]/y[i-1]-1)
		}
	}
	if len(ratios) == 0 {
		return f.opts.FallbackGrowth
	}
	m, err := stats.Median(ratios)
	if err != nil {
		return f.opts.FallbackGrowth
	}
	return m
}

// cagr returns the compound annual growth in percent from last to final over n years.
func cagr(last, final float64, n int) null.Float {
	if last <= 0 || final <= 0 || n < 1 {
		return null.Float{}
	}
	return null.FloatFrom(utils.Round2((math.Pow(final/last, 1/float64(n)) - 1) * 100))
}
