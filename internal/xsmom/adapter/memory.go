package adapter

import (
	"sort"
	"time"

	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
)

// MemoryAdapter holds a fully materialized, in-memory price dataset. It
// is the adapter exercised by every deterministic test and end-to-end
// scenario: construction takes an immutable snapshot, and nothing
// mutates it afterward, matching the single-threaded, read-only-after-
// load model described in §5.
type MemoryAdapter struct {
	dialect dialect.Dialect
	series  map[Symbol]PriceSeries
	dates   []time.Time
	loaded  bool
}

// NewMemoryAdapter constructs an adapter over raw per-symbol bars. Bars
// are sorted and deduplicated by date per symbol; symbols whose bar
// count falls below the dialect's MinDays are retained in storage but
// will simply never satisfy MinDays at any slice length that matters —
// callers load only symbols they intend to offer.
func NewMemoryAdapter(d dialect.Dialect, raw map[Symbol][]Bar) *MemoryAdapter {
	series := make(map[Symbol]PriceSeries, len(raw))
	for sym, bars := range raw {
		sorted := append([]Bar(nil), bars...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		dedup := sorted[:0:0]
		for i, b := range sorted {
			if i > 0 && b.Date.Equal(sorted[i-1].Date) {
				dedup[len(dedup)-1] = b
				continue
			}
			dedup = append(dedup, b)
		}
		series[sym] = PriceSeries{Symbol: sym, Bars: dedup}
	}
	return &MemoryAdapter{dialect: d, series: series}
}

// LoadAll computes the union of trading dates across all symbols. It is
// idempotent; real adapters with I/O would do their fetch here.
func (a *MemoryAdapter) LoadAll() error {
	set := make(map[time.Time]struct{})
	for _, s := range a.series {
		for _, b := range s.Bars {
			set[b.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	a.dates = dates
	a.loaded = true
	return nil
}

// TradingDates returns the ordered distinct union of dates across all
// symbols.
func (a *MemoryAdapter) TradingDates() []time.Time {
	if !a.loaded {
		a.LoadAll()
	}
	out := make([]time.Time, len(a.dates))
	copy(out, a.dates)
	return out
}

// SliceToDate is the single no-look-ahead enforcement point: no returned
// bar may carry a date after d, and the min-length threshold is
// re-applied to the SLICE (not merely the full series), matching the
// original adapter's re-check on every slice.
func (a *MemoryAdapter) SliceToDate(d time.Time) Universe {
	u := make(Universe)
	for sym, s := range a.series {
		sliced := s.SliceToDate(d)
		if len(sliced.Bars) >= a.dialect.MinDays {
			u[sym] = sliced
		}
	}
	return u
}

// PricesAt returns only symbols with an exact bar at d; missing symbols
// are omitted, never filled.
func (a *MemoryAdapter) PricesAt(d time.Time) map[Symbol]float64 {
	out := make(map[Symbol]float64)
	for sym, s := range a.series {
		if c, ok := s.CloseAt(d); ok {
			out[sym] = c
		}
	}
	return out
}

// BenchmarkSeries returns a single symbol's full (unsliced) series —
// legitimate only for post-hoc relative-metric computation, never for
// trading decisions.
func (a *MemoryAdapter) BenchmarkSeries(sym Symbol) (PriceSeries, bool) {
	s, ok := a.series[sym]
	return s, ok
}

// DateRange returns the first and last trading date, or ok=false if no
// dates are loaded.
func (a *MemoryAdapter) DateRange() (time.Time, time.Time, bool) {
	dates := a.TradingDates()
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return dates[0], dates[len(dates)-1], true
}

func (a *MemoryAdapter) MinDays() int                  { return a.dialect.MinDays }
func (a *MemoryAdapter) AnnualizationFactor() float64  { return a.dialect.AnnualizationFactor }
func (a *MemoryAdapter) Dialect() dialect.Dialect       { return a.dialect }
