// Package adapter implements the Market Data Adapter component: loading
// OHLCV history per symbol and exposing the single no-look-ahead gate,
// slice_to_date, along with exact-date price lookups.
package adapter

import (
	"sort"
	"strings"
	"time"
)

// Symbol is an opaque, upper-cased identifier.
type Symbol string

// NormalizeSymbol upper-cases a raw symbol string.
func NormalizeSymbol(raw string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(raw)))
}

// Bar is one (date, close, volume) observation.
type Bar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// PriceSeries is a strictly ascending, duplicate-free sequence of Bars
// for one symbol.
type PriceSeries struct {
	Symbol Symbol
	Bars   []Bar
}

// SliceToDate returns the prefix of bars with Date <= d. The returned
// slice shares no backing array mutation risk for the caller (a fresh
// slice header over the same backing array is safe since PriceSeries is
// never mutated after construction).
func (p PriceSeries) SliceToDate(d time.Time) PriceSeries {
	idx := sort.Search(len(p.Bars), func(i int) bool {
		return p.Bars[i].Date.After(d)
	})
	return PriceSeries{Symbol: p.Symbol, Bars: p.Bars[:idx]}
}

// CloseAt returns the close at an exact date match, if any.
func (p PriceSeries) CloseAt(d time.Time) (float64, bool) {
	idx := sort.Search(len(p.Bars), func(i int) bool {
		return !p.Bars[i].Date.Before(d)
	})
	if idx < len(p.Bars) && p.Bars[idx].Date.Equal(d) {
		return p.Bars[idx].Close, true
	}
	return 0, false
}

// Closes returns the raw close prices in ascending date order.
func (p PriceSeries) Closes() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Close
	}
	return out
}

// Universe is the sliced-to-date mapping handed to a scoring function.
// No bar in any series may carry a date after the slice date; this
// invariant is enforced exclusively by the adapter's SliceToDate method.
type Universe map[Symbol]PriceSeries

// Adapter is the Market Data Adapter contract (spec §4.A).
type Adapter interface {
	LoadAll() error
	TradingDates() []time.Time
	SliceToDate(d time.Time) Universe
	PricesAt(d time.Time) map[Symbol]float64
	BenchmarkSeries(sym Symbol) (PriceSeries, bool)
	DateRange() (time.Time, time.Time, bool)
	MinDays() int
	AnnualizationFactor() float64
}
