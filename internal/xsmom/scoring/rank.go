package scoring

import "sort"

// PercentileRank buckets composite scores into [0, 99] integer ranks.
// Ordinal rank (ascending, average-rank ties) divided by count, scaled
// to 100, floored and clamped. A universe of one always receives 50.
func PercentileRank(symbols []string, composite map[string]float64) map[string]int {
	n := len(symbols)
	if n == 0 {
		return map[string]int{}
	}
	if n == 1 {
		return map[string]int{symbols[0]: 50}
	}

	ordered := append([]string(nil), symbols...)
	sort.Slice(ordered, func(i, j int) bool { return composite[ordered[i]] < composite[ordered[j]] })

	// Average-rank tie handling: equal composite scores share the mean
	// of the ordinal positions they would otherwise occupy.
	avgOrdinal := make(map[string]float64, n)
	i := 0
	for i < n {
		j := i
		for j < n && composite[ordered[j]] == composite[ordered[i]] {
			j++
		}
		// ordinal positions i..j-1, 1-based to match rankdata(method="average"),
		// average them
		sum := 0.0
		for k := i; k < j; k++ {
			sum += float64(k + 1)
		}
		avg := sum / float64(j-i)
		for k := i; k < j; k++ {
			avgOrdinal[ordered[k]] = avg
		}
		i = j
	}

	out := make(map[string]int, n)
	for _, sym := range symbols {
		pct := avgOrdinal[sym] / float64(n) * 100
		r := int(pct) // floor for non-negative values
		if r < 0 {
			r = 0
		}
		if r > 99 {
			r = 99
		}
		out[sym] = r
	}
	return out
}
