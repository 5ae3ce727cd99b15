// Package fundamentals implements the Metrics Pipeline: a deterministic,
// three-pass calculator producing per-quarter derived financial metrics
// from raw income/balance-sheet/cash-flow rows.
package fundamentals

import "time"

// StatementRow is one quarter's raw fundamental inputs for a symbol. All
// numeric fields are pointers so that "missing" is representable
// distinctly from zero.
type StatementRow struct {
	Date       time.Time
	Period     string // e.g. "Q1", "Q2", "Q3", "Q4"
	FiscalYear int

	// Income statement
	Revenue         *float64
	GrossProfit     *float64
	OperatingIncome *float64
	EBITDA          *float64
	NetIncome       *float64
	EPSDiluted      *float64
	TaxExpense      *float64
	PreTaxIncome    *float64
	COGS            *float64

	// Balance sheet
	TotalEquity        *float64
	TotalDebt           *float64
	Cash                *float64
	TotalAssets         *float64
	CurrentAssets       *float64
	CurrentLiabilities  *float64
	Inventory           *float64
	Receivables         *float64

	// Cash flow
	OperatingCashFlow *float64
	CapEx             *float64
}

// MetricRow is one output row of ~40 derived fields, keyed uniquely by
// (symbol, date). Every field is a pointer: absent means the input data
// could not support the computation, never a zero sentinel.
type MetricRow struct {
	Symbol     string
	Date       time.Time
	Period     string
	FiscalYear int

	// Margins
	GrossMargin     *float64
	OperatingMargin *float64
	NetMargin       *float64
	EBITDAMargin    *float64

	// TTM-based returns
	ROE  *float64
	ROA  *float64
	ROIC *float64

	// Leverage
	DebtToEquity  *float64
	DebtToAssets  *float64
	CurrentRatio  *float64
	QuickRatio    *float64

	// Efficiency (trailing 4Q)
	AssetTurnover       *float64
	InventoryTurnover   *float64
	ReceivablesTurnover *float64

	// YoY growth
	RevenueGrowthYoY         *float64
	NetIncomeGrowthYoY       *float64
	EPSGrowthYoY             *float64
	OperatingIncomeGrowthYoY *float64

	// QoQ growth
	RevenueGrowthQoQ         *float64
	NetIncomeGrowthQoQ       *float64
	EPSGrowthQoQ             *float64
	OperatingIncomeGrowthQoQ *float64

	// QoQ margin/return deltas (decimal pp)
	GrossMarginDeltaQoQ     *float64
	OperatingMarginDeltaQoQ *float64
	NetMarginDeltaQoQ       *float64
	EBITDAMarginDeltaQoQ    *float64
	ROEDeltaQoQ             *float64
	ROICDeltaQoQ            *float64

	// Trailing-4Q CAGR
	RevenueCAGR4Q         *float64
	GrossProfitCAGR4Q     *float64
	OperatingIncomeCAGR4Q *float64
	EBITDACAGR4Q          *float64
	NetIncomeCAGR4Q       *float64
	EPSCAGR4Q             *float64

	// Trailing-4Q margin change (decimal pp)
	GrossMarginChange4Q     *float64
	OperatingMarginChange4Q *float64
	NetMarginChange4Q       *float64
	EBITDAMarginChange4Q    *float64

	// Cash flow
	FCFMargin            *float64
	FCFToNetIncome        *float64
	OperatingCFToRevenue *float64
}
