package factorstudy

import (
	"math"
	"sort"
	"time"
)

// ICResult is the Track-1 output for one forward horizon.
type ICResult struct {
	Horizon         int
	MeanIC          float64
	StdIC           float64
	ICInformationRatio float64
	ICHitRate       float64
	NObservations   int
	QuantileReturns []float64 // index 0 = bottom quantile, last = top
	TopBottomSpread float64
	Absent          bool
}

// AnalyzeIC runs Track 1 across every configured horizon.
func AnalyzeIC(history ScoreHistory, matrices map[int]ReturnMatrix, computationDates []time.Time, nQuantiles int) map[int]ICResult {
	out := make(map[int]ICResult, len(matrices))
	for horizon, matrix := range matrices {
		out[horizon] = icForHorizon(history, matrix, computationDates, nQuantiles, horizon)
	}
	return out
}

func icForHorizon(history ScoreHistory, matrix ReturnMatrix, computationDates []time.Time, nQuantiles, horizon int) ICResult {
	var icSeries []float64
	quantileSums := make([]float64, nQuantiles)
	quantileCounts := make([]int, nQuantiles)

	for _, d := range computationDates {
		returns, ok := matrix[d]
		if !ok {
			continue
		}
		scores := make(map[string]float64)
		for sym, points := range history {
			for _, p := range points {
				if p.Date.Equal(d) {
					scores[sym] = p.Score
					break
				}
			}
		}

		var symbols []string
		for sym := range scores {
			if _, ok := returns[sym]; ok {
				symbols = append(symbols, sym)
			}
		}
		if len(symbols) < 5 {
			continue
		}
		sort.Strings(symbols)

		scoreVals := make([]float64, len(symbols))
		retVals := make([]float64, len(symbols))
		for i, sym := range symbols {
			scoreVals[i] = scores[sym]
			retVals[i] = returns[sym]
		}

		ic, ok := spearman(scoreVals, retVals)
		if ok {
			icSeries = append(icSeries, ic)
		}

		if buckets, ok := quantileBucketMeans(symbols, scoreVals, retVals, nQuantiles); ok {
			for q := 0; q < nQuantiles; q++ {
				if buckets.counts[q] > 0 {
					quantileSums[q] += buckets.sums[q] / float64(buckets.counts[q])
					quantileCounts[q]++
				}
			}
		}
	}

	if len(icSeries) < 3 {
		return ICResult{Horizon: horizon, Absent: true}
	}

	meanIC := mean(icSeries)
	stdIC := sampleStd(icSeries)
	hitRate := 0.0
	for _, v := range icSeries {
		if v > 0 {
			hitRate++
		}
	}
	hitRate /= float64(len(icSeries))

	icIR := 0.0
	if stdIC > 1e-10 {
		icIR = meanIC / stdIC
	}

	quantileMeans := make([]float64, nQuantiles)
	for q := 0; q < nQuantiles; q++ {
		if quantileCounts[q] > 0 {
			quantileMeans[q] = quantileSums[q] / float64(quantileCounts[q])
		}
	}
	spread := 0.0
	if nQuantiles > 0 {
		spread = quantileMeans[nQuantiles-1] - quantileMeans[0]
	}

	return ICResult{
		Horizon:            horizon,
		MeanIC:             meanIC,
		StdIC:              stdIC,
		ICInformationRatio: icIR,
		ICHitRate:          hitRate,
		NObservations:      len(icSeries),
		QuantileReturns:    quantileMeans,
		TopBottomSpread:    spread,
	}
}

type bucketAgg struct {
	sums   []float64
	counts []int
}

// quantileBucketMeans assigns each symbol to a quantile bucket by score
// rank (ties broken by first occurrence, i.e. stable sort preserving the
// symbols slice's input order), then sums returns per bucket for this
// date. Returns ok=false (skip this date) when there are fewer distinct
// score values than nQuantiles, matching the original's qcut
// ValueError-skip behavior.
func quantileBucketMeans(symbols []string, scores, returns []float64, nQuantiles int) (bucketAgg, bool) {
	n := len(symbols)
	if n < nQuantiles {
		return bucketAgg{}, false
	}

	distinct := make(map[float64]struct{}, n)
	for _, s := range scores {
		distinct[s] = struct{}{}
	}
	if len(distinct) < nQuantiles {
		return bucketAgg{}, false
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })

	agg := bucketAgg{sums: make([]float64, nQuantiles), counts: make([]int, nQuantiles)}
	for rank, idx := range order {
		q := rank * nQuantiles / n
		if q >= nQuantiles {
			q = nQuantiles - 1
		}
		agg.sums[q] += returns[idx]
		agg.counts[q]++
	}
	return agg, true
}

// spearman computes the Spearman rank correlation between x and y via
// average-rank transform followed by Pearson correlation. Returns false
// for fewer than 5 pairs or mismatched lengths.
func spearman(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 5 {
		return 0, false
	}
	rx := averageRanks(x)
	ry := averageRanks(y)
	return pearson(rx, ry)
}

func averageRanks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j < n && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		sum := 0.0
		for k := i; k < j; k++ {
			sum += float64(k + 1) // 1-based rank
		}
		avgRank := sum / float64(j-i)
		for k := i; k < j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j
	}
	return ranks
}

func pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n == 0 {
		return 0, false
	}
	mx, my := mean(x), mean(y)
	var num, dx2, dy2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 <= 1e-12 || dy2 <= 1e-12 {
		return 0, false
	}
	r := num / math.Sqrt(dx2*dy2)
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
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

func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mu := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
