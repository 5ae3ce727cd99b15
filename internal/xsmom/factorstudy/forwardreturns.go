package factorstudy

import (
	"time"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
)

// ReturnMatrix is one horizon's date x symbol -> forward return table.
// Built from FULL (unsliced) data: legitimate because it feeds
// evaluation, never trading decisions.
type ReturnMatrix map[time.Time]map[string]float64

// BuildReturnMatrices computes one ReturnMatrix per horizon from full
// per-symbol price history.
func BuildReturnMatrices(full map[adapter.Symbol]adapter.PriceSeries, computationDates []time.Time, horizons []int) map[int]ReturnMatrix {
	dateIndex := make(map[adapter.Symbol]map[time.Time]int, len(full))
	for sym, series := range full {
		idx := make(map[time.Time]int, len(series.Bars))
		for i, b := range series.Bars {
			idx[b.Date] = i
		}
		dateIndex[sym] = idx
	}

	out := make(map[int]ReturnMatrix, len(horizons))
	for _, h := range horizons {
		m := make(ReturnMatrix, len(computationDates))
		for _, d := range computationDates {
			row := make(map[string]float64)
			for sym, series := range full {
				idx, ok := dateIndex[sym]
				if !ok {
					continue
				}
				startIdx, ok := idx[d]
				if !ok {
					continue
				}
				endIdx := startIdx + h
				if endIdx >= len(series.Bars) {
					continue
				}
				p0 := series.Bars[startIdx].Close
				p1 := series.Bars[endIdx].Close
				if p0 == 0 {
					continue
				}
				row[string(sym)] = p1/p0 - 1
			}
			if len(row) > 0 {
				m[d] = row
			}
		}
		out[h] = m
	}
	return out
}
