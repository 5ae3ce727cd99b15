// Package scoring implements the two first-class cross-sectional
// momentum scoring methods (risk-adjusted z-score and Clenow regression
// momentum), parametrized by a market Dialect so the same code serves
// equities and perpetual futures.
package scoring

import (
	"math"
	"sort"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
)

// Method names a first-class scoring algorithm.
type Method string

const (
	MethodB Method = "B" // risk-adjusted cross-sectional z-score
	MethodC Method = "C" // Clenow regression momentum
)

// Row is one symbol's scoring output.
type Row struct {
	Symbol     adapter.Symbol
	Composite  float64
	Rank       int
}

// Ranking is the full cross-sectional output of a scoring pass, sorted
// by rank descending (ties broken by ascending symbol).
type Ranking []Row

// ByRank returns this ranking's symbols in rank-descending order.
func (r Ranking) ByRank() []adapter.Symbol {
	out := make([]adapter.Symbol, len(r))
	for i, row := range r {
		out[i] = row.Symbol
	}
	return out
}

// Lookup returns the rank for a symbol, if present.
func (r Ranking) Lookup(sym adapter.Symbol) (Row, bool) {
	for _, row := range r {
		if row.Symbol == sym {
			return row, true
		}
	}
	return Row{}, false
}

// ScoreFunc consumes a sliced Universe and returns a Ranking. The
// signature deliberately takes no adapter reference, breaking the
// cyclic scoring<->adapter dependency called out in the design notes:
// the adapter produces a Universe, the dialect selects a ScoreFunc.
type ScoreFunc func(u adapter.Universe) Ranking

// Resolve returns the ScoreFunc for a (method, dialect) pair.
func Resolve(method Method, d dialect.Dialect) ScoreFunc {
	switch method {
	case MethodC:
		return func(u adapter.Universe) Ranking { return computeMethodC(u, d) }
	default:
		return func(u adapter.Universe) Ranking { return computeMethodB(u, d) }
	}
}

// windowReturn returns close[end]/close[end-window] - 1, or (0, false)
// if the index is out of bounds (symbol dropped from output).
func windowReturn(closes []float64, end, window int) (float64, bool) {
	start := end - window
	if start < 0 || end < 0 || end >= len(closes) || closes[start] <= 0 {
		return 0, false
	}
	return closes[end]/closes[start] - 1, true
}

// sampleStd is the ddof=1 (Bessel-corrected) standard deviation.
func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// crossSectionZScore z-scores a map of symbol->raw value across the
// universe, sample-corrected std, clamped to [-3, 3]. A universe of one
// (or a degenerate/zero-std universe) emits all zeros.
func crossSectionZScore(raw map[adapter.Symbol]float64) map[adapter.Symbol]float64 {
	out := make(map[adapter.Symbol]float64, len(raw))
	if len(raw) <= 1 {
		for sym := range raw {
			out[sym] = 0
		}
		return out
	}
	vals := make([]float64, 0, len(raw))
	for _, v := range raw {
		vals = append(vals, v)
	}
	mu := mean(vals)
	sd := sampleStd(vals)
	for sym, v := range raw {
		if sd <= 1e-10 {
			out[sym] = 0
			continue
		}
		z := (v - mu) / sd
		out[sym] = clamp(z, -3, 3)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rankFromComposite(composite map[adapter.Symbol]float64) Ranking {
	symbols := make([]string, 0, len(composite))
	byStr := make(map[string]float64, len(composite))
	symOf := make(map[string]adapter.Symbol, len(composite))
	for sym, c := range composite {
		s := string(sym)
		symbols = append(symbols, s)
		byStr[s] = c
		symOf[s] = sym
	}
	ranks := PercentileRank(symbols, byStr)

	out := make(Ranking, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, Row{Symbol: symOf[s], Composite: byStr[s], Rank: ranks[s]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// computeMethodB implements the risk-adjusted cross-sectional z-score:
// only the long window is risk-adjusted (return / annualized volatility
// of daily returns within the window); mid/short windows contribute raw
// returns. Each of the three measures is cross-sectionally z-scored,
// clamped, then combined with the dialect's WeightsB.
func computeMethodB(u adapter.Universe, d dialect.Dialect) Ranking {
	rawLong := make(map[adapter.Symbol]float64)
	rawMid := make(map[adapter.Symbol]float64)
	rawShort := make(map[adapter.Symbol]float64)

	for sym, series := range u {
		closes := series.Closes()
		end := len(closes) - 1 - d.SkipDays
		if end < 0 {
			continue
		}
		retLong, okLong := windowReturn(closes, end, d.WindowLong)
		retMid, okMid := windowReturn(closes, end, d.WindowMid)
		retShort, okShort := windowReturn(closes, end, d.WindowShort)
		if !okLong || !okMid || !okShort {
			continue
		}

		volStart := end - d.WindowLong
		if volStart < 0 {
			continue
		}
		dailyRets := make([]float64, 0, d.WindowLong)
		for i := volStart + 1; i <= end; i++ {
			if closes[i-1] <= 0 {
				continue
			}
			dailyRets = append(dailyRets, closes[i]/closes[i-1]-1)
		}
		volLong := sampleStd(dailyRets) * math.Sqrt(d.AnnualizationFactor)

		raLong := 0.0
		if volLong > 1e-10 {
			raLong = retLong / volLong
		}

		rawLong[sym] = raLong
		rawMid[sym] = retMid
		rawShort[sym] = retShort
	}

	zLong := crossSectionZScore(rawLong)
	zMid := crossSectionZScore(rawMid)
	zShort := crossSectionZScore(rawShort)

	composite := make(map[adapter.Symbol]float64, len(rawLong))
	for sym := range rawLong {
		composite[sym] = d.WeightsB[0]*zLong[sym] + d.WeightsB[1]*zMid[sym] + d.WeightsB[2]*zShort[sym]
	}
	return rankFromComposite(composite)
}

// clenowMomentum fits a linear regression of log-price against a 0..n-1
// time index over the trailing `window` closes ending at `end` (so the
// slice is closes[end-window+1 : end+1]). Returns the annualized,
// r²-weighted momentum score. A non-positive price anywhere in the
// window, or a window shorter than two bars, yields a zero contribution;
// a window reaching before the first close reports false.
func clenowMomentum(closes []float64, end, window int, annualization float64) (float64, bool) {
	if window < 2 {
		return 0, true
	}
	start := end - window + 1
	if start < 0 || end >= len(closes) {
		return 0, false
	}
	tail := closes[start : end+1]
	for _, c := range tail {
		if c <= 0 {
			return 0, true // in-bounds window, degenerate price -> contribution 0
		}
	}

	n := float64(len(tail))
	var sumX, sumY, sumXY, sumXX float64
	logs := make([]float64, len(tail))
	for i, c := range tail {
		logs[i] = math.Log(c)
		x := float64(i)
		sumX += x
		sumY += logs[i]
		sumXY += x * logs[i]
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, true
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// r^2 of the fit
	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range logs {
		yhat := intercept + slope*float64(i)
		ssRes += (y - yhat) * (y - yhat)
		ssTot += (y - meanY) * (y - meanY)
	}
	r2 := 1.0
	if ssTot > 1e-10 {
		r2 = 1 - ssRes/ssTot
	}
	if r2 < 0 {
		r2 = 0
	}

	annualized := clamp(math.Pow(math.Exp(slope), annualization)-1, -10, 100)
	return annualized * r2, true
}

// computeMethodC implements the Clenow regression momentum method:
// per-window annualized, r²-weighted slope, combined with WeightsC, then
// percentile ranked.
func computeMethodC(u adapter.Universe, d dialect.Dialect) Ranking {
	composite := make(map[adapter.Symbol]float64)
	for sym, series := range u {
		closes := series.Closes()
		end := len(closes) - 1
		if end < 0 {
			continue
		}
		cLong, okLong := clenowMomentum(closes, end, d.WindowLong, d.AnnualizationFactor)
		cMid, okMid := clenowMomentum(closes, end, d.WindowMid, d.AnnualizationFactor)
		cShort, okShort := clenowMomentum(closes, end, d.WindowShort, d.AnnualizationFactor)
		if !okLong || !okMid || !okShort {
			continue
		}
		composite[sym] = d.WeightsC[0]*cLong + d.WeightsC[1]*cMid + d.WeightsC[2]*cShort
	}
	return rankFromComposite(composite)
}
