package dto

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestMetricMonetary(t *testing.T) {
	for _, m := range BaseMetrics {
		assert.True(t, m.Monetary(), m)
	}
	assert.False(t, MetricGrossProfitMargin.Monetary())
	assert.False(t, MetricNetProfitMargin.Monetary())
}

func TestDerivedRecordGrowthRoundTrip(t *testing.T) {
	var r DerivedRecord
	for i, m := range GrowthMetrics {
		assert.True(t, r.SetGrowth(m, null.FloatFrom(float64(i))), m)
	}
	for i, m := range GrowthMetrics {
		g, ok := r.Growth(m)
		assert.True(t, ok, m)
		assert.Equal(t, null.FloatFrom(float64(i)), g, m)
	}

	_, ok := r.Growth(MetricCostOfSales)
	assert.False(t, ok)
}

func TestParseSource(t *testing.T) {
	assert.Equal(t, SourceExtracted, ParseSource("Extracted"))
	assert.Equal(t, SourceExtracted, ParseSource(" extracted "))
	assert.Equal(t, SourceSample, ParseSource("Sample"))
	assert.Equal(t, SourceSample, ParseSource(""))
	assert.Equal(t, SourceSample, ParseSource("manual"))
}
