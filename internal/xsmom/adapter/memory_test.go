package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func barsFrom(start time.Time, closes []float64) []Bar {
	out := make([]Bar, len(closes))
	for i, c := range closes {
		out[i] = Bar{Date: start.AddDate(0, 0, i), Close: c, Volume: 1000}
	}
	return out
}

func TestMemoryAdapter_SliceToDate_NoLookAhead(t *testing.T) {
	d := dialect.Perpetuals() // MinDays 15, small dialect to keep fixtures short
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	raw := map[Symbol][]Bar{"BTC": barsFrom(day(2024, 1, 1), closes)}
	a := NewMemoryAdapter(d, raw)
	require.NoError(t, a.LoadAll())

	cut := day(2024, 1, 20)
	u := a.SliceToDate(cut)
	series, ok := u["BTC"]
	require.True(t, ok)
	for _, b := range series.Bars {
		assert.False(t, b.Date.After(cut), "bar date %v must not be after slice date %v", b.Date, cut)
	}
	assert.Equal(t, 20, len(series.Bars))
}

func TestMemoryAdapter_SliceToDate_FutureSpikeInvisible(t *testing.T) {
	d := dialect.Perpetuals()
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 100000 // a spike that must never leak into an earlier slice
	raw := map[Symbol][]Bar{"BTC": barsFrom(day(2024, 1, 1), closes)}
	a := NewMemoryAdapter(d, raw)
	require.NoError(t, a.LoadAll())

	u := a.SliceToDate(day(2024, 1, 15))
	series := u["BTC"]
	for _, b := range series.Bars {
		assert.Less(t, b.Close, 1000.0)
	}
}

func TestMemoryAdapter_MinDaysReappliedToSlice(t *testing.T) {
	d := dialect.Perpetuals() // MinDays 15
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	raw := map[Symbol][]Bar{"BTC": barsFrom(day(2024, 1, 1), closes)}
	a := NewMemoryAdapter(d, raw)
	require.NoError(t, a.LoadAll())

	// A slice cut early enough that fewer than MinDays bars exist must
	// drop the symbol entirely, even though the full series satisfies
	// MinDays.
	u := a.SliceToDate(day(2024, 1, 5))
	_, ok := u["BTC"]
	assert.False(t, ok, "symbol with < MinDays bars at this slice must be excluded")
}

func TestMemoryAdapter_PricesAt_ExactDateOnly(t *testing.T) {
	d := dialect.Perpetuals()
	raw := map[Symbol][]Bar{"BTC": barsFrom(day(2024, 1, 1), []float64{100, 101, 102})}
	a := NewMemoryAdapter(d, raw)
	require.NoError(t, a.LoadAll())

	prices := a.PricesAt(day(2024, 1, 2))
	assert.Equal(t, 101.0, prices["BTC"])

	missing := a.PricesAt(day(2024, 6, 1))
	_, ok := missing["BTC"]
	assert.False(t, ok, "PricesAt must omit symbols without an exact bar, never fill")
}

func TestMemoryAdapter_DeduplicatesByDate(t *testing.T) {
	d := dialect.Perpetuals()
	bars := []Bar{
		{Date: day(2024, 1, 1), Close: 100},
		{Date: day(2024, 1, 1), Close: 105}, // duplicate date, later value wins
		{Date: day(2024, 1, 2), Close: 110},
	}
	raw := map[Symbol][]Bar{"BTC": bars}
	a := NewMemoryAdapter(d, raw)
	require.NoError(t, a.LoadAll())

	series, ok := a.BenchmarkSeries("BTC")
	require.True(t, ok)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, 105.0, series.Bars[0].Close)
}

func TestMemoryAdapter_DateRangeEmpty(t *testing.T) {
	d := dialect.Equities()
	a := NewMemoryAdapter(d, map[Symbol][]Bar{})
	_, _, ok := a.DateRange()
	assert.False(t, ok)
}
