package fundamentals

// ComputeSymbol runs the three-pass derived-metric algorithm over one
// symbol's statement rows, ordered newest-first (rows[0] is the most
// recent quarter). Returns one MetricRow per input row.
func ComputeSymbol(symbol string, rows []StatementRow) []MetricRow {
	n := len(rows)
	out := make([]MetricRow, n)

	revenue := extract(rows, func(r StatementRow) *float64 { return r.Revenue })
	netIncome := extract(rows, func(r StatementRow) *float64 { return r.NetIncome })

	for i, row := range rows {
		m := MetricRow{Symbol: symbol, Date: row.Date, Period: row.Period, FiscalYear: row.FiscalYear}

		// --- Pass 1: margins ---
		m.GrossMargin = safeDiv(row.GrossProfit, row.Revenue)
		m.OperatingMargin = safeDiv(row.OperatingIncome, row.Revenue)
		m.NetMargin = safeDiv(row.NetIncome, row.Revenue)
		m.EBITDAMargin = safeDiv(row.EBITDA, row.Revenue)

		// --- Pass 1: TTM-based ROE/ROA, with single-quarter x4 fallback ---
		ttmNetIncome := sumLastN(netIncome[i:], 4)
		var roeDenom, roaDenom *float64
		var ttmForReturns *float64
		if ttmNetIncome != nil && i+4 < n {
			priorBS := rows[i+4]
			roeDenom = avg(row.TotalEquity, priorBS.TotalEquity)
			roaDenom = avg(row.TotalAssets, priorBS.TotalAssets)
			ttmForReturns = ttmNetIncome
		} else if row.NetIncome != nil {
			ttmForReturns = mulScalar(row.NetIncome, 4)
			roeDenom = row.TotalEquity
			roaDenom = row.TotalAssets
		}
		m.ROE = safeDiv(ttmForReturns, roeDenom)
		m.ROA = safeDiv(ttmForReturns, roaDenom)

		// --- Pass 1: ROIC via NOPAT ---
		effectiveTaxRate := safeDiv(row.TaxExpense, row.PreTaxIncome)
		var nopat *float64
		if effectiveTaxRate != nil && row.OperatingIncome != nil {
			nopat = mulScalar(row.OperatingIncome, 1-*effectiveTaxRate)
		}
		investedCapital := investedCapitalOf(row)
		m.ROIC = safeDiv(nopat, investedCapital)

		// --- Pass 1: leverage ---
		m.DebtToEquity = safeDiv(row.TotalDebt, row.TotalEquity)
		m.DebtToAssets = safeDiv(row.TotalDebt, row.TotalAssets)
		m.CurrentRatio = safeDiv(row.CurrentAssets, row.CurrentLiabilities)
		if row.CurrentAssets != nil && row.Inventory != nil {
			quickNum := sub(row.CurrentAssets, row.Inventory)
			m.QuickRatio = safeDiv(quickNum, row.CurrentLiabilities)
		}

		// --- Pass 1: efficiency (trailing 4Q) ---
		ttmRevenue := sumLastN(revenue[i:], 4)
		var revForEff *float64
		var assetsDenom, inventoryDenom, receivablesDenom *float64
		if ttmRevenue != nil && i+4 < n {
			priorBS := rows[i+4]
			assetsDenom = avg(row.TotalAssets, priorBS.TotalAssets)
			inventoryDenom = avg(row.Inventory, priorBS.Inventory)
			receivablesDenom = avg(row.Receivables, priorBS.Receivables)
			revForEff = ttmRevenue
		} else if row.Revenue != nil {
			revForEff = mulScalar(row.Revenue, 4)
			assetsDenom = row.TotalAssets
		}
		m.AssetTurnover = safeDiv(revForEff, assetsDenom)
		if ttmRevenue != nil {
			m.InventoryTurnover = safeDiv(ttmRevenue, inventoryDenom)
			m.ReceivablesTurnover = safeDiv(ttmRevenue, receivablesDenom)
		}

		// --- Pass 1: YoY growth (matched on period + fiscal_year - 1) ---
		if prior, ok := findYoYMatch(rows, row.Period, row.FiscalYear-1); ok {
			m.RevenueGrowthYoY = pctChange(row.Revenue, prior.Revenue)
			m.NetIncomeGrowthYoY = pctChange(row.NetIncome, prior.NetIncome)
			m.EPSGrowthYoY = pctChange(row.EPSDiluted, prior.EPSDiluted)
			m.OperatingIncomeGrowthYoY = pctChange(row.OperatingIncome, prior.OperatingIncome)
		}

		// --- Pass 1: cash flow ---
		if row.OperatingCashFlow != nil && row.CapEx != nil {
			fcf := sub(row.OperatingCashFlow, row.CapEx)
			m.FCFMargin = safeDiv(fcf, row.Revenue)
			m.FCFToNetIncome = safeDiv(fcf, row.NetIncome)
		}
		m.OperatingCFToRevenue = safeDiv(row.OperatingCashFlow, row.Revenue)

		out[i] = m
	}

	// --- Pass 2: QoQ growth and margin/return deltas, needs rows[i+1] ---
	for i := range out {
		if i+1 >= n {
			continue // oldest row: all QoQ fields absent
		}
		cur, prior := rows[i], rows[i+1]
		out[i].RevenueGrowthQoQ = pctChange(cur.Revenue, prior.Revenue)
		out[i].NetIncomeGrowthQoQ = pctChange(cur.NetIncome, prior.NetIncome)
		out[i].EPSGrowthQoQ = pctChange(cur.EPSDiluted, prior.EPSDiluted)
		out[i].OperatingIncomeGrowthQoQ = pctChange(cur.OperatingIncome, prior.OperatingIncome)

		out[i].GrossMarginDeltaQoQ = delta(out[i].GrossMargin, out[i+1].GrossMargin)
		out[i].OperatingMarginDeltaQoQ = delta(out[i].OperatingMargin, out[i+1].OperatingMargin)
		out[i].NetMarginDeltaQoQ = delta(out[i].NetMargin, out[i+1].NetMargin)
		out[i].EBITDAMarginDeltaQoQ = delta(out[i].EBITDAMargin, out[i+1].EBITDAMargin)
		out[i].ROEDeltaQoQ = delta(out[i].ROE, out[i+1].ROE)
		out[i].ROICDeltaQoQ = delta(out[i].ROIC, out[i+1].ROIC)
	}

	// --- Pass 3: trailing-4Q CAGR and margin change, needs rows[i+3] ---
	for i := range out {
		if i+3 >= n {
			continue // fewer than 4 rows remain: all absent
		}
		base := rows[i+3]
		cur := rows[i]
		out[i].RevenueCAGR4Q = cagr(cur.Revenue, base.Revenue, 3)
		out[i].GrossProfitCAGR4Q = cagr(cur.GrossProfit, base.GrossProfit, 3)
		out[i].OperatingIncomeCAGR4Q = cagr(cur.OperatingIncome, base.OperatingIncome, 3)
		out[i].EBITDACAGR4Q = cagr(cur.EBITDA, base.EBITDA, 3)
		out[i].NetIncomeCAGR4Q = cagr(cur.NetIncome, base.NetIncome, 3)
		out[i].EPSCAGR4Q = cagr(cur.EPSDiluted, base.EPSDiluted, 3)

		out[i].GrossMarginChange4Q = delta(out[i].GrossMargin, out[i+3].GrossMargin)
		out[i].OperatingMarginChange4Q = delta(out[i].OperatingMargin, out[i+3].OperatingMargin)
		out[i].NetMarginChange4Q = delta(out[i].NetMargin, out[i+3].NetMargin)
		out[i].EBITDAMarginChange4Q = delta(out[i].EBITDAMargin, out[i+3].EBITDAMargin)
	}

	return out
}

// investedCapitalOf computes equity + debt - cash, defaulting absent
// components to zero (matching the original's lenient treatment of this
// one denominator).
func investedCapitalOf(row StatementRow) *float64 {
	if row.TotalEquity == nil && row.TotalDebt == nil && row.Cash == nil {
		return nil
	}
	zero := 0.0
	equity := row.TotalEquity
	if equity == nil {
		equity = &zero
	}
	debtVal := row.TotalDebt
	if debtVal == nil {
		debtVal = &zero
	}
	cashVal := row.Cash
	if cashVal == nil {
		cashVal = &zero
	}
	v := *equity + *debtVal - *cashVal
	return &v
}

// findYoYMatch locates the row matching (period, fiscalYear) exactly —
// the critical policy of matching on period+fiscal_year rather than date
// offsets, which tolerates non-standard fiscal year ends.
func findYoYMatch(rows []StatementRow, period string, fiscalYear int) (StatementRow, bool) {
	for _, r := range rows {
		if r.Period == period && r.FiscalYear == fiscalYear {
			return r, true
		}
	}
	return StatementRow{}, false
}

func extract(rows []StatementRow, sel func(StatementRow) *float64) []*float64 {
	out := make([]*float64, len(rows))
	for i, r := range rows {
		out[i] = sel(r)
	}
	return out
}
