// Package rebalance implements the hysteresis-buffer Top-N selection
// rule and target-weight assignment.
package rebalance

import (
	"sort"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// Weighting selects how target weights are assigned across the target
// holding set.
type Weighting string

const (
	Equal        Weighting = "equal"
	RankWeighted Weighting = "rank_weighted"
)

// Action is the output of one rebalance decision.
type Action struct {
	ToSell      []adapter.Symbol
	ToBuy       []adapter.Symbol
	ToHold      []adapter.Symbol
	TargetCount int
}

// Rebalancer applies the Top-N hysteresis rule.
type Rebalancer struct {
	TopN       int
	SellBuffer int
	Weighting  Weighting
}

// New constructs a Rebalancer. sellBuffer may be 0 (no hysteresis); the
// buffer/frequency coupling implications of that choice are the
// caller's responsibility, per spec's open question — this type does
// not clamp or warn.
func New(topN, sellBuffer int, weighting Weighting) *Rebalancer {
	return &Rebalancer{TopN: topN, SellBuffer: sellBuffer, Weighting: weighting}
}

func contains(set map[adapter.Symbol]struct{}, s adapter.Symbol) bool {
	_, ok := set[s]
	return ok
}

// Compute applies the 7-step hysteresis rule against the current holding
// set H, given a Ranking sorted by rank descending (Ranking is always
// produced that way by the scoring package).
func (r *Rebalancer) Compute(ranking scoring.Ranking, holdings map[adapter.Symbol]struct{}) Action {
	if len(ranking) == 0 {
		toSell := make([]adapter.Symbol, 0, len(holdings))
		for s := range holdings {
			toSell = append(toSell, s)
		}
		sort.Slice(toSell, func(i, j int) bool { return toSell[i] < toSell[j] })
		return Action{ToSell: toSell, TargetCount: 0}
	}

	ordered := ranking.ByRank()

	topN := ordered
	if len(topN) > r.TopN {
		topN = topN[:r.TopN]
	}

	safeLen := r.TopN + r.SellBuffer
	if safeLen > len(ordered) {
		safeLen = len(ordered)
	}
	safe := make(map[adapter.Symbol]struct{}, safeLen)
	for _, s := range ordered[:safeLen] {
		safe[s] = struct{}{}
	}

	inRanking := make(map[adapter.Symbol]struct{}, len(ordered))
	for _, s := range ordered {
		inRanking[s] = struct{}{}
	}

	var toSell []adapter.Symbol
	for h := range holdings {
		if !contains(inRanking, h) || !contains(safe, h) {
			toSell = append(toSell, h)
		}
	}
	sort.Slice(toSell, func(i, j int) bool { return toSell[i] < toSell[j] })

	toSellSet := make(map[adapter.Symbol]struct{}, len(toSell))
	for _, s := range toSell {
		toSellSet[s] = struct{}{}
	}

	var kept []adapter.Symbol
	for h := range holdings {
		if !contains(toSellSet, h) {
			kept = append(kept, h)
		}
	}
	keptSet := make(map[adapter.Symbol]struct{}, len(kept))
	for _, s := range kept {
		keptSet[s] = struct{}{}
	}

	slots := r.TopN - len(kept)
	if slots < 0 {
		slots = 0
	}

	var toBuy []adapter.Symbol
	for _, s := range topN {
		if len(toBuy) >= slots {
			break
		}
		if contains(keptSet, s) || contains(toSellSet, s) {
			continue
		}
		toBuy = append(toBuy, s)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })

	return Action{
		ToSell:      toSell,
		ToBuy:       toBuy,
		ToHold:      kept,
		TargetCount: len(kept) + len(toBuy),
	}
}

// Weights assigns target weights over ToHold ∪ ToBuy. equal assigns
// 1/target_count; rank_weighted normalizes max(rank, 1), degrading to
// equal when the total is non-positive or the target set is empty.
func (r *Rebalancer) Weights(action Action, ranking scoring.Ranking) map[adapter.Symbol]float64 {
	target := append(append([]adapter.Symbol(nil), action.ToHold...), action.ToBuy...)
	n := len(target)
	out := make(map[adapter.Symbol]float64, n)
	if n == 0 {
		return out
	}

	if r.Weighting != RankWeighted {
		for _, s := range target {
			out[s] = 1.0 / float64(n)
		}
		return out
	}

	total := 0.0
	weights := make(map[adapter.Symbol]float64, n)
	for _, s := range target {
		w := 1.0
		if row, ok := ranking.Lookup(s); ok {
			w = float64(row.Rank)
		}
		if w < 1 {
			w = 1
		}
		weights[s] = w
		total += w
	}
	if total <= 0 {
		for _, s := range target {
			out[s] = 1.0 / float64(n)
		}
		return out
	}
	for _, s := range target {
		out[s] = weights[s] / total
	}
	return out
}
