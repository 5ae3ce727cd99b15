package optimizer

import (
	"sort"

	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// The *Neighbors tables list each tunable dimension's ordered candidate values, so
// that "one step away" can be found by index. RebalanceFreq and
// SellBuffer are market-specific; the others are shared.
var topNNeighbors = []int{5, 10, 15, 20}
var rsMethodNeighbors = []string{"B", "C"}

var rebalanceFreqNeighbors = map[string][]string{
	"equities":   {"W", "2W", "M"},
	"perpetuals": {"D", "3D", "W"},
}

var sellBufferNeighbors = map[string][]int{
	"equities":   {0, 5, 10},
	"perpetuals": {0, 3, 5},
}

// RobustCandidate augments a Candidate with its robustness score: the
// harmonic mean of the candidate's own Sharpe and the average Sharpe of
// its one-step parameter neighbors. A candidate whose neighbors also
// perform well is preferred over an isolated spike.
type RobustCandidate struct {
	Candidate
	RobustnessScore float64
	NeighborCount   int
}

// RankWithRobustness takes the top topK candidates by Sharpe ratio and
// re-ranks them by robustness score.
func RankWithRobustness(candidates []Candidate, topK int) []RobustCandidate {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortBySharpeDesc(sorted)

	if topK > len(sorted) {
		topK = len(sorted)
	}
	top := sorted[:topK]

	out := make([]RobustCandidate, 0, len(top))
	for _, c := range top {
		neighborVals := findNeighborSharpes(c, sorted)
		score := c.Metrics.SharpeRatio
		if len(neighborVals) > 0 {
			neighborAvg := mean(neighborVals)
			score = harmonicMean(c.Metrics.SharpeRatio, neighborAvg)
		}
		out = append(out, RobustCandidate{Candidate: c, RobustnessScore: score, NeighborCount: len(neighborVals)})
	}

	sortRobustDesc(out)
	return out
}

// findNeighborSharpes locates, for each tunable dimension, the sibling
// candidates that differ from c in exactly that one dimension and
// collects their Sharpe ratios.
func findNeighborSharpes(c Candidate, pool []Candidate) []float64 {
	var out []float64

	for _, adjTopN := range adjacentInts(topNNeighbors, c.Config.TopN) {
		if match := findMatch(pool, c.Config, "top_n", adjTopN); match != nil {
			out = append(out, match.Metrics.SharpeRatio)
		}
	}
	for _, adjMethod := range adjacentStrings(rsMethodNeighbors, string(c.Config.ScoreMethod)) {
		if match := findMatch(pool, c.Config, "rs_method", adjMethod); match != nil {
			out = append(out, match.Metrics.SharpeRatio)
		}
	}
	freqOrder := rebalanceFreqNeighbors[c.Config.Market]
	for _, adjFreq := range adjacentStrings(freqOrder, c.Config.RebalanceFreq) {
		if match := findMatch(pool, c.Config, "rebalance_freq", adjFreq); match != nil {
			out = append(out, match.Metrics.SharpeRatio)
		}
	}
	bufferOrder := sellBufferNeighbors[c.Config.Market]
	for _, adjBuf := range adjacentInts(bufferOrder, c.Config.SellBuffer) {
		if match := findMatch(pool, c.Config, "sell_buffer", adjBuf); match != nil {
			out = append(out, match.Metrics.SharpeRatio)
		}
	}

	return out
}

// findMatch finds the first candidate in pool whose config equals base in
// every tunable dimension except dim, which must equal val.
func findMatch(pool []Candidate, base config.BacktestConfig, dim string, val interface{}) *Candidate {
	for i := range pool {
		c := pool[i].Config
		topN, method, freq, buf := base.TopN, base.ScoreMethod, base.RebalanceFreq, base.SellBuffer
		switch dim {
		case "top_n":
			topN = val.(int)
		case "rs_method":
			method = scoring.Method(val.(string))
		case "rebalance_freq":
			freq = val.(string)
		case "sell_buffer":
			buf = val.(int)
		}
		if c.TopN == topN && c.ScoreMethod == method && c.RebalanceFreq == freq && c.SellBuffer == buf {
			return &pool[i]
		}
	}
	return nil
}

func adjacentInts(ordered []int, current int) []int {
	idx := -1
	for i, v := range ordered {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var out []int
	if idx > 0 {
		out = append(out, ordered[idx-1])
	}
	if idx < len(ordered)-1 {
		out = append(out, ordered[idx+1])
	}
	return out
}

func adjacentStrings(ordered []string, current string) []string {
	idx := -1
	for i, v := range ordered {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var out []string
	if idx > 0 {
		out = append(out, ordered[idx-1])
	}
	if idx < len(ordered)-1 {
		out = append(out, ordered[idx+1])
	}
	return out
}

func harmonicMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
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

func sortRobustDesc(cands []RobustCandidate) {
	sort.Slice(cands, func(i, j int) bool { return cands[i].RobustnessScore > cands[j].RobustnessScore })
}
