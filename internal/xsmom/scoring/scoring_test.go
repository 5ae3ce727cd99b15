package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
)

func seriesOf(sym adapter.Symbol, closes []float64) adapter.PriceSeries {
	bars := make([]adapter.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = adapter.Bar{Date: start.AddDate(0, 0, i), Close: c, Volume: 1000}
	}
	return adapter.PriceSeries{Symbol: sym, Bars: bars}
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// uptrend returns n closes compounding at dailyRate.
func uptrend(n int, start, dailyRate float64) []float64 {
	out := make([]float64, n)
	out[0] = start
	for i := 1; i < n; i++ {
		out[i] = out[i-1] * (1 + dailyRate)
	}
	return out
}

func TestComputeMethodB_RanksStrongerMomentumHigher(t *testing.T) {
	d := dialect.Perpetuals()
	u := adapter.Universe{
		"WINNER": seriesOf("WINNER", uptrend(12, 100, 0.02)),
		"LOSER":  seriesOf("LOSER", uptrend(12, 100, -0.01)),
		"FLAT":   seriesOf("FLAT", flat(12, 100)),
	}
	ranking := Resolve(MethodB, d)(u)

	winner, ok := ranking.Lookup("WINNER")
	if !ok {
		t.Fatalf("WINNER missing from ranking")
	}
	loser, ok := ranking.Lookup("LOSER")
	if !ok {
		t.Fatalf("LOSER missing from ranking")
	}
	assert.Greater(t, winner.Rank, loser.Rank, "stronger trailing momentum must rank higher")
}

func TestComputeMethodC_ClenowFavorsSmootherTrend(t *testing.T) {
	d := dialect.Perpetuals()
	smooth := uptrend(12, 100, 0.015)
	// a noisy series with the same endpoints but a dip in the middle,
	// degrading r^2 of the regression fit
	noisy := append([]float64(nil), smooth...)
	noisy[6] = noisy[6] * 0.8

	u := adapter.Universe{
		"SMOOTH": seriesOf("SMOOTH", smooth),
		"NOISY":  seriesOf("NOISY", noisy),
	}
	ranking := Resolve(MethodC, d)(u)
	smoothRow, ok := ranking.Lookup("SMOOTH")
	if !ok {
		t.Fatalf("SMOOTH missing from ranking")
	}
	noisyRow, ok := ranking.Lookup("NOISY")
	if !ok {
		t.Fatalf("NOISY missing from ranking")
	}
	assert.GreaterOrEqual(t, smoothRow.Rank, noisyRow.Rank, "a cleaner fit should not rank below a noisier one with a dip")
}

func TestComputeMethodB_InsufficientHistoryExcludesSymbol(t *testing.T) {
	d := dialect.Equities() // long window 252, far beyond this fixture
	u := adapter.Universe{
		"SHORT": seriesOf("SHORT", uptrend(20, 100, 0.01)),
	}
	ranking := Resolve(MethodB, d)(u)
	assert.Empty(t, ranking, "symbol without enough bars for the long window must be excluded, not zero-filled")
}

func TestPercentileRank_SingleSymbolGetsFifty(t *testing.T) {
	ranks := PercentileRank([]string{"ONLY"}, map[string]float64{"ONLY": 1.23})
	assert.Equal(t, 50, ranks["ONLY"])
}

func TestPercentileRank_OrdersAscendingByComposite(t *testing.T) {
	composite := map[string]float64{"A": 1.0, "B": 2.0, "C": 3.0}
	ranks := PercentileRank([]string{"A", "B", "C"}, composite)
	assert.Less(t, ranks["A"], ranks["B"])
	assert.Less(t, ranks["B"], ranks["C"])
}

func TestPercentileRank_TiesShareAverageRank(t *testing.T) {
	composite := map[string]float64{"A": 1.0, "B": 1.0, "C": 2.0}
	ranks := PercentileRank([]string{"A", "B", "C"}, composite)
	assert.Equal(t, ranks["A"], ranks["B"], "tied composites must share the same rank")
	assert.Less(t, ranks["A"], ranks["C"])
}

func TestPercentileRank_TopSymbolClampsToNinetyNine(t *testing.T) {
	// 1-based ordinal position divided by count: the top of 5 reaches
	// ordinal 5/5*100 = 100, which must clamp to 99, not floor to 80 as
	// a 0-based ordinal would.
	composite := map[string]float64{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5}
	ranks := PercentileRank([]string{"A", "B", "C", "D", "E"}, composite)
	assert.Equal(t, 99, ranks["E"])
	assert.Equal(t, 20, ranks["A"])
}

func TestResolve_DefaultsToMethodB(t *testing.T) {
	d := dialect.Perpetuals()
	fn := Resolve(Method("unknown"), d)
	u := adapter.Universe{"X": seriesOf("X", uptrend(12, 100, 0.01))}
	// Should not panic and should produce the same ranking shape as B.
	got := fn(u)
	want := Resolve(MethodB, d)(u)
	assert.Equal(t, len(want), len(got))
}
