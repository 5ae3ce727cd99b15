package factorstudy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
)

func seriesDaily(sym adapter.Symbol, start time.Time, closes []float64) adapter.PriceSeries {
	bars := make([]adapter.Bar, len(closes))
	for i, c := range closes {
		bars[i] = adapter.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return adapter.PriceSeries{Symbol: sym, Bars: bars}
}

func TestBuildReturnMatrices_ComputesForwardReturn(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	full := map[adapter.Symbol]adapter.PriceSeries{
		"A": seriesDaily("A", start, []float64{100, 101, 102, 103, 104, 105}),
	}
	dates := []time.Time{start}
	matrices := BuildReturnMatrices(full, dates, []int{2})

	m, ok := matrices[2]
	require.True(t, ok)
	row, ok := m[start]
	require.True(t, ok)
	assert.InDelta(t, 0.02, row["A"], 1e-9) // 102/100 - 1
}

func TestBuildReturnMatrices_OmitsDateWithoutEnoughForwardBars(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	full := map[adapter.Symbol]adapter.PriceSeries{
		"A": seriesDaily("A", start, []float64{100, 101}),
	}
	dates := []time.Time{start}
	matrices := BuildReturnMatrices(full, dates, []int{5})
	m := matrices[5]
	_, ok := m[start]
	assert.False(t, ok, "date with insufficient forward bars must be omitted entirely")
}

func TestBuildReturnMatrices_SkipsComputationDateAbsentFromSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	full := map[adapter.Symbol]adapter.PriceSeries{
		"A": seriesDaily("A", start, []float64{100, 101, 102}),
	}
	missingDate := start.AddDate(0, 0, 30)
	matrices := BuildReturnMatrices(full, []time.Time{missingDate}, []int{1})
	assert.Empty(t, matrices[1])
}
