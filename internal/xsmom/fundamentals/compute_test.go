package fundamentals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func q(year int, period string, date time.Time, revenue, grossProfit, netIncome float64) StatementRow {
	return StatementRow{
		Date: date, Period: period, FiscalYear: year,
		Revenue: f(revenue), GrossProfit: f(grossProfit), NetIncome: f(netIncome),
	}
}

func TestComputeSymbol_MarginsFromRawFields(t *testing.T) {
	rows := []StatementRow{
		q(2024, "Q2", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 1000, 400, 100),
	}
	out := ComputeSymbol("ACME", rows)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].GrossMargin)
	assert.InDelta(t, 0.4, *out[0].GrossMargin, 1e-9)
	require.NotNil(t, out[0].NetMargin)
	assert.InDelta(t, 0.1, *out[0].NetMargin, 1e-9)
}

func TestComputeSymbol_MissingRevenueLeavesMarginNil(t *testing.T) {
	rows := []StatementRow{
		{Date: time.Now(), Period: "Q1", FiscalYear: 2024, GrossProfit: f(400)},
	}
	out := ComputeSymbol("ACME", rows)
	assert.Nil(t, out[0].GrossMargin)
}

func TestComputeSymbol_YoYGrowthMatchesOnPeriodAndFiscalYear(t *testing.T) {
	rows := []StatementRow{
		q(2024, "Q2", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 1100, 440, 110),
		q(2024, "Q1", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1050, 420, 105),
		q(2023, "Q4", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 1020, 400, 95),
		q(2023, "Q2", time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), 1000, 400, 100),
	}
	out := ComputeSymbol("ACME", rows)
	require.NotNil(t, out[0].RevenueGrowthYoY)
	assert.InDelta(t, 0.1, *out[0].RevenueGrowthYoY, 1e-9) // 1100 vs 1000 prior-year Q2
}

func TestComputeSymbol_QoQGrowthNeedsNextRow(t *testing.T) {
	rows := []StatementRow{
		q(2024, "Q2", time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 1100, 440, 110),
		q(2024, "Q1", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1000, 400, 100),
	}
	out := ComputeSymbol("ACME", rows)
	require.NotNil(t, out[0].RevenueGrowthQoQ)
	assert.InDelta(t, 0.1, *out[0].RevenueGrowthQoQ, 1e-9)
	assert.Nil(t, out[1].RevenueGrowthQoQ, "oldest row has no following quarter to compare against")
}

func TestComputeSymbol_CAGR4QNeedsFourTrailingRows(t *testing.T) {
	base := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	rows := make([]StatementRow, 5)
	for i := range rows {
		// newest first: rows[0] is most recent
		rev := 1000.0 * (1 + 0.05*float64(4-i))
		rows[i] = q(2024, "Q2", base.AddDate(0, 3*(4-i), 0), rev, rev*0.4, rev*0.1)
	}
	out := ComputeSymbol("ACME", rows)
	require.NotNil(t, out[0].RevenueCAGR4Q, "row with 3 trailing rows available must compute CAGR4Q")
	assert.Nil(t, out[4].RevenueCAGR4Q, "the oldest row has no base 3 rows further back")
}

func TestComputeSymbol_ROEUsesTTMWhenFourQuartersAvailable(t *testing.T) {
	rows := make([]StatementRow, 5)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = StatementRow{
			Date: base.AddDate(0, 3*(4-i), 0), Period: "Q", FiscalYear: 2024,
			NetIncome: f(100), TotalEquity: f(1000),
		}
	}
	out := ComputeSymbol("ACME", rows)
	require.NotNil(t, out[0].ROE)
	// TTM net income = 400, equity avg = 1000 -> ROE = 0.4
	assert.InDelta(t, 0.4, *out[0].ROE, 1e-9)
}

func TestComputeSymbol_EmptyInputReturnsEmptyOutput(t *testing.T) {
	out := ComputeSymbol("ACME", nil)
	assert.Empty(t, out)
}

func TestSafeDiv_ZeroDenominatorIsAbsent(t *testing.T) {
	zero := 0.0
	one := 1.0
	assert.Nil(t, safeDiv(&one, &zero))
}

func TestCagr_NegativeBaseIsAbsent(t *testing.T) {
	neg := -5.0
	cur := 10.0
	assert.Nil(t, cagr(&cur, &neg, 3))
}
