package factorstudy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evDate(day int) time.Time {
	return time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC)
}

func TestRunEventStudy_SignificantPositiveEventReturns(t *testing.T) {
	dates := []time.Time{evDate(1), evDate(2), evDate(3), evDate(4), evDate(5)}
	events := EventSet{"A": dates}
	matrix := ReturnMatrix{
		dates[0]: {"A": 0.05},
		dates[1]: {"A": 0.06},
		dates[2]: {"A": 0.04},
		dates[3]: {"A": 0.055},
		dates[4]: {"A": 0.05},
	}
	results := RunEventStudy("RS_Rating_B:threshold", events, map[int]ReturnMatrix{5: matrix})
	require.Len(t, results, 1)
	res := results[0]
	assert.False(t, res.Absent)
	assert.Equal(t, 5, res.NEvents)
	assert.Greater(t, res.MeanReturn, 0.0)
	assert.True(t, res.Significant)
}

func TestRunEventStudy_TooFewEventsIsAbsent(t *testing.T) {
	dates := []time.Time{evDate(1), evDate(2)}
	events := EventSet{"A": dates}
	matrix := ReturnMatrix{
		dates[0]: {"A": 0.05},
		dates[1]: {"A": 0.06},
	}
	results := RunEventStudy("sig", events, map[int]ReturnMatrix{5: matrix})
	require.Len(t, results, 1)
	assert.True(t, results[0].Absent)
}

func TestRunEventStudy_SortsByHorizonAscending(t *testing.T) {
	dates := []time.Time{evDate(1), evDate(2), evDate(3)}
	events := EventSet{"A": dates}
	m5 := ReturnMatrix{dates[0]: {"A": 0.01}, dates[1]: {"A": 0.01}, dates[2]: {"A": 0.01}}
	m10 := ReturnMatrix{dates[0]: {"A": 0.02}, dates[1]: {"A": 0.02}, dates[2]: {"A": 0.02}}
	results := RunEventStudy("sig", events, map[int]ReturnMatrix{10: m10, 5: m5})
	require.Len(t, results, 2)
	assert.Equal(t, 5, results[0].Horizon)
	assert.Equal(t, 10, results[1].Horizon)
}

func TestMedian_OddAndEvenCounts(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{1, 2, 3}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
}
