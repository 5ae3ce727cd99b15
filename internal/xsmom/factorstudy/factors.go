package factorstudy

import (
	"fmt"
	"sort"
	"time"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// FactorMeta describes a factor's score semantics, mirroring the
// protocol the original factor adapters expose to the study runner.
type FactorMeta struct {
	Name             string
	ScoreName        string
	ScoreRangeLow    float64
	ScoreRangeHigh   float64
	HigherIsStronger bool
	MinDataDays      int
}

// Factor produces a symbol -> score snapshot as of a date. Implementations
// wrap either the RS Rating scoring methods already used by the engine, or
// standalone technical indicators adapted from the original indicator
// library.
type Factor interface {
	Meta() FactorMeta
	Compute(u adapter.Universe, date time.Time) map[string]float64
}

// rsRatingFactor wraps scoring.Resolve so RS Rating B/C (and their crypto
// counterparts) participate in the study as ordinary factors.
type rsRatingFactor struct {
	meta   FactorMeta
	scorer scoring.ScoreFunc
}

func (f rsRatingFactor) Meta() FactorMeta { return f.meta }

func (f rsRatingFactor) Compute(u adapter.Universe, date time.Time) map[string]float64 {
	ranking := f.scorer(u)
	out := make(map[string]float64, len(ranking))
	for _, row := range ranking {
		out[row.Symbol] = float64(row.Rank)
	}
	return out
}

func newRSRatingFactor(name string, method scoring.Method, d dialect.Dialect, minDays int) Factor {
	return rsRatingFactor{
		meta: FactorMeta{
			Name: name, ScoreName: "rs_rank", ScoreRangeLow: 0, ScoreRangeHigh: 99,
			HigherIsStronger: true, MinDataDays: minDays,
		},
		scorer: scoring.Resolve(method, d),
	}
}

// pmarpFactor — Price Moving Average Ratio Percentile. Computes close /
// SMA(150) and expresses today's ratio as a percentile of its own trailing
// history, matching the time-series (not cross-sectional) nature of the
// original PMARP indicator.
type pmarpFactor struct{ smaWindow, historyWindow int }

func (f pmarpFactor) Meta() FactorMeta {
	return FactorMeta{Name: "PMARP", ScoreName: "current", ScoreRangeLow: 0, ScoreRangeHigh: 100, HigherIsStronger: true, MinDataDays: 170}
}

func (f pmarpFactor) Compute(u adapter.Universe, date time.Time) map[string]float64 {
	out := make(map[string]float64)
	for sym, series := range u {
		sliced := series.SliceToDate(date)
		ratios := rollingRatioToSMA(sliced.Closes(), f.smaWindow)
		if len(ratios) == 0 {
			continue
		}
		hist := ratios
		if len(hist) > f.historyWindow {
			hist = hist[len(hist)-f.historyWindow:]
		}
		current := ratios[len(ratios)-1]
		out[string(sym)] = percentileOfValue(hist, current)
	}
	return out
}

// rvolFactor — relative volume expressed as a sigma distance from its
// trailing mean.
type rvolFactor struct{ lookback int }

func (f rvolFactor) Meta() FactorMeta {
	return FactorMeta{Name: "RVOL", ScoreName: "sigma", ScoreRangeLow: -5, ScoreRangeHigh: 10, HigherIsStronger: true, MinDataDays: 121}
}

func (f rvolFactor) Compute(u adapter.Universe, date time.Time) map[string]float64 {
	out := make(map[string]float64)
	for sym, series := range u {
		sliced := series.SliceToDate(date)
		if len(sliced.Bars) < f.lookback+1 {
			continue
		}
		vols := volumesOf(sliced.Bars)
		sigma, ok := sigmaOfLast(vols, f.lookback)
		if ok {
			out[string(sym)] = sigma
		}
	}
	return out
}

// dvAccelerationFactor — ratio of 5-day to 20-day mean dollar volume.
type dvAccelerationFactor struct{ fast, slow int }

func (f dvAccelerationFactor) Meta() FactorMeta {
	return FactorMeta{Name: "DV_Acceleration", ScoreName: "ratio", ScoreRangeLow: 0, ScoreRangeHigh: 5, HigherIsStronger: true, MinDataDays: 20}
}

func (f dvAccelerationFactor) Compute(u adapter.Universe, date time.Time) map[string]float64 {
	out := make(map[string]float64)
	for sym, series := range u {
		sliced := series.SliceToDate(date)
		if len(sliced.Bars) < f.slow {
			continue
		}
		dv := make([]float64, len(sliced.Bars))
		for i, b := range sliced.Bars {
			dv[i] = b.Close * b.Volume
		}
		fastMean := mean(dv[len(dv)-f.fast:])
		slowMean := mean(dv[len(dv)-f.slow:])
		if slowMean <= 1e-10 {
			continue
		}
		out[string(sym)] = fastMean / slowMean
	}
	return out
}

// rvolSustainedFactor — count of consecutive trailing days where the
// volume sigma (see rvolFactor) exceeds threshold, reset to zero on any
// break in the streak, as of date.
type rvolSustainedFactor struct {
	lookback  int
	threshold float64
}

func (f rvolSustainedFactor) Meta() FactorMeta {
	return FactorMeta{Name: "RVOL_Sustained", ScoreName: "days", ScoreRangeLow: 0, ScoreRangeHigh: 30, HigherIsStronger: true, MinDataDays: 121}
}

func (f rvolSustainedFactor) Compute(u adapter.Universe, date time.Time) map[string]float64 {
	out := make(map[string]float64)
	for sym, series := range u {
		sliced := series.SliceToDate(date)
		if len(sliced.Bars) < f.lookback+1 {
			out[string(sym)] = 0
			continue
		}
		vols := volumesOf(sliced.Bars)
		streak := 0
		for i := f.lookback; i < len(vols); i++ {
			sigma, ok := sigmaOfLast(vols[:i+1], f.lookback)
			if ok && sigma > f.threshold {
				streak++
			} else {
				streak = 0
			}
		}
		out[string(sym)] = float64(streak)
	}
	return out
}

func rollingRatioToSMA(closes []float64, window int) []float64 {
	if len(closes) < window {
		return nil
	}
	out := make([]float64, 0, len(closes)-window+1)
	for i := window - 1; i < len(closes); i++ {
		sma := mean(closes[i-window+1 : i+1])
		if sma <= 1e-10 {
			continue
		}
		out = append(out, closes[i]/sma)
	}
	return out
}

func percentileOfValue(hist []float64, v float64) float64 {
	below := 0
	for _, h := range hist {
		if h <= v {
			below++
		}
	}
	return float64(below) / float64(len(hist)) * 100
}

func volumesOf(bars []adapter.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func sigmaOfLast(vols []float64, lookback int) (float64, bool) {
	if len(vols) < lookback+1 {
		return 0, false
	}
	window := vols[len(vols)-lookback-1 : len(vols)-1]
	mu := mean(window)
	sd := sampleStd(window)
	if sd <= 1e-10 {
		return 0, false
	}
	last := vols[len(vols)-1]
	return (last - mu) / sd, true
}

// ALLFACTORS is the closed registry of known factors plus the two
// parametrized RS Rating entries for each market dialect.
var ALLFACTORS = map[string]func() Factor{
	"RS_Rating_B": func() Factor { return newRSRatingFactor("RS_Rating_B", scoring.MethodB, dialect.Equities(), 70) },
	"RS_Rating_C": func() Factor { return newRSRatingFactor("RS_Rating_C", scoring.MethodC, dialect.Equities(), 70) },
	"PMARP":       func() Factor { return pmarpFactor{smaWindow: 150, historyWindow: 252} },
	"RVOL":        func() Factor { return rvolFactor{lookback: 100} },
	"DV_Acceleration": func() Factor { return dvAccelerationFactor{fast: 5, slow: 20} },
	"RVOL_Sustained":  func() Factor { return rvolSustainedFactor{lookback: 100, threshold: 2.0} },
	"Crypto_RS_B":     func() Factor { return newRSRatingFactor("Crypto_RS_B", scoring.MethodB, dialect.Perpetuals(), 15) },
	"Crypto_RS_C":     func() Factor { return newRSRatingFactor("Crypto_RS_C", scoring.MethodC, dialect.Perpetuals(), 15) },
}

// GetFactor is the factory function: construct a Factor by registered
// name.
func GetFactor(name string) (Factor, error) {
	ctor, ok := ALLFACTORS[name]
	if !ok {
		return nil, fmt.Errorf("unknown factor %q, available: %v", name, ListFactors())
	}
	return ctor(), nil
}

// ListFactors returns every registered factor name, sorted.
func ListFactors() []string {
	names := make([]string, 0, len(ALLFACTORS))
	for n := range ALLFACTORS {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
