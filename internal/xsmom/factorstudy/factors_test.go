package factorstudy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
)

func TestListFactors_IncludesAllEightRegisteredNames(t *testing.T) {
	names := ListFactors()
	want := []string{"Crypto_RS_B", "Crypto_RS_C", "DV_Acceleration", "PMARP", "RS_Rating_B", "RS_Rating_C", "RVOL", "RVOL_Sustained"}
	assert.ElementsMatch(t, want, names)
}

func TestGetFactor_UnknownNameReturnsError(t *testing.T) {
	_, err := GetFactor("NoSuchFactor")
	require.Error(t, err)
}

func TestGetFactor_KnownNameConstructsFactor(t *testing.T) {
	f, err := GetFactor("RVOL")
	require.NoError(t, err)
	assert.Equal(t, "RVOL", f.Meta().Name)
}

func factorFixtureSeries(start time.Time, n int, priceFn func(i int) float64, volumeFn func(i int) float64) adapter.PriceSeries {
	bars := make([]adapter.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = adapter.Bar{Date: start.AddDate(0, 0, i), Close: priceFn(i), Volume: volumeFn(i)}
	}
	return adapter.PriceSeries{Symbol: "A", Bars: bars}
}

func TestRVOLFactor_SpikeInVolumeProducesPositiveSigma(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 130
	series := factorFixtureSeries(start, n, func(i int) float64 { return 100 }, func(i int) float64 {
		if i == n-1 {
			return 100000 // a sharp spike on the last day
		}
		return 1000 + float64(i%3)*10 // mild day-to-day variation, non-zero std
	})
	u := adapter.Universe{"A": series}
	f := rvolFactor{lookback: 100}
	scores := f.Compute(u, start.AddDate(0, 0, n-1))
	require.Contains(t, scores, "A")
	assert.Greater(t, scores["A"], 0.0)
}

func TestDVAccelerationFactor_RisingVolumeYieldsRatioAboveOne(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 25
	series := factorFixtureSeries(start, n, func(i int) float64 { return 100 }, func(i int) float64 {
		if i >= n-5 {
			return 5000 // last 5 days much heavier than the trailing 20
		}
		return 1000
	})
	u := adapter.Universe{"A": series}
	f := dvAccelerationFactor{fast: 5, slow: 20}
	scores := f.Compute(u, start.AddDate(0, 0, n-1))
	require.Contains(t, scores, "A")
	assert.Greater(t, scores["A"], 1.0)
}

func TestPMARPFactor_InsufficientHistoryOmitsSymbol(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := factorFixtureSeries(start, 50, func(i int) float64 { return 100 }, func(i int) float64 { return 1000 })
	u := adapter.Universe{"A": series}
	f := pmarpFactor{smaWindow: 150, historyWindow: 252}
	scores := f.Compute(u, start.AddDate(0, 0, 49))
	assert.NotContains(t, scores, "A")
}
