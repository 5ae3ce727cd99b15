package factorstudy

import "sort"

// EventStudyResult is the Track-2 output for one (signal, horizon) pair.
type EventStudyResult struct {
	SignalLabel  string
	Horizon      int
	NEvents      int
	MeanReturn   float64
	MedianReturn float64
	HitRate      float64
	TStat        float64
	PValue       float64
	Significant  bool
	Absent       bool
}

// RunEventStudy evaluates one signal's EventSet at every horizon in
// matrices, pulling forward returns from that horizon's ReturnMatrix.
func RunEventStudy(label string, events EventSet, matrices map[int]ReturnMatrix) []EventStudyResult {
	var out []EventStudyResult
	for horizon, matrix := range matrices {
		out = append(out, eventStudyForHorizon(label, events, matrix, horizon))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Horizon < out[j].Horizon })
	return out
}

func eventStudyForHorizon(label string, events EventSet, matrix ReturnMatrix, horizon int) EventStudyResult {
	var returns []float64
	for sym, dates := range events {
		for _, d := range dates {
			row, ok := matrix[d]
			if !ok {
				continue
			}
			r, ok := row[sym]
			if !ok {
				continue
			}
			returns = append(returns, r)
		}
	}

	if len(returns) < 3 {
		return EventStudyResult{SignalLabel: label, Horizon: horizon, NEvents: len(returns), Absent: true}
	}

	hitRate := 0.0
	for _, r := range returns {
		if r > 0 {
			hitRate++
		}
	}
	hitRate /= float64(len(returns))

	t, p, ok := OneSampleTTest(returns)

	return EventStudyResult{
		SignalLabel:  label,
		Horizon:      horizon,
		NEvents:      len(returns),
		MeanReturn:   mean(returns),
		MedianReturn: median(returns),
		HitRate:      hitRate,
		TStat:        t,
		PValue:       p,
		Significant:  ok && p < 0.05,
	}
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
