// Package portfolio implements fractional-share position accounting with
// single-sided, symmetric transaction costs.
package portfolio

import (
	"time"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
)

const dustThreshold = 1e-10

// Side identifies a trade direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Trade is one executed order.
type Trade struct {
	Date     time.Time
	Symbol   adapter.Symbol
	Side     Side
	Shares   float64
	Price    float64
	Cost     float64
	Notional float64
}

// Snapshot is a point-in-time NAV record.
type Snapshot struct {
	Date         time.Time
	NAV          float64
	Cash         float64
	HoldingCount int
}

// Portfolio tracks cash, fractional holdings and the running trade/cost
// ledger for a single backtest run. A Portfolio is single-use per run.
type Portfolio struct {
	cash       float64
	costRate   float64
	holdings   map[adapter.Symbol]float64
	trades     []Trade
	snapshots  []Snapshot
	totalCosts float64
}

// New constructs a Portfolio seeded with initialCapital cash and a
// single-sided transaction cost rate (e.g. 0.0005 for 5bps).
func New(initialCapital, costRate float64) *Portfolio {
	return &Portfolio{
		cash:     initialCapital,
		costRate: costRate,
		holdings: make(map[adapter.Symbol]float64),
	}
}

// Buy spends up to `notional` dollars of cash on symbol at price,
// charging cost = notional * costRate and acquiring shares =
// (notional - cost) / price. If notional exceeds available cash, the
// buy degrades to spending all remaining cash (cost-inclusive) rather
// than overdrawing. Prices or notionals <= 0 are no-ops returning 0.
// Every executed buy appends exactly one Trade record; no-op calls
// append none.
func (p *Portfolio) Buy(sym adapter.Symbol, notional, price float64, date time.Time) float64 {
	if notional <= 0 || price <= 0 {
		return 0
	}

	cost := notional * p.costRate
	netAmount := notional - cost

	if notional > p.cash {
		// Degrade to spend-all-remaining-cash: solve available such that
		// available + available*costRate == cash.
		available := p.cash - (p.cash*p.costRate)/(1+p.costRate)
		if available <= 0 {
			return 0
		}
		cost = p.cash - available
		netAmount = available
		notional = p.cash
	}

	shares := netAmount / price
	p.cash -= notional
	p.holdings[sym] += shares
	p.totalCosts += cost
	p.trades = append(p.trades, Trade{
		Date: date, Symbol: sym, Side: Buy,
		Shares: shares, Price: price, Cost: cost, Notional: notional,
	})
	return shares
}

// Sell liquidates up to `shares` of symbol (clipped to the held
// quantity) at price. gross = shares*price, cost = gross*costRate, cash
// increases by gross-cost. Holdings below the dust threshold are
// removed. Returns the net cash received.
func (p *Portfolio) Sell(sym adapter.Symbol, shares, price float64, date time.Time) float64 {
	if shares <= 0 || price <= 0 {
		return 0
	}
	held := p.holdings[sym]
	if shares > held {
		shares = held
	}
	if shares <= 0 {
		return 0
	}

	gross := shares * price
	cost := gross * p.costRate
	net := gross - cost

	p.cash += net
	p.holdings[sym] = held - shares
	if p.holdings[sym] < dustThreshold {
		delete(p.holdings, sym)
	}
	p.totalCosts += cost
	p.trades = append(p.trades, Trade{
		Date: date, Symbol: sym, Side: Sell,
		Shares: shares, Price: price, Cost: cost, Notional: gross,
	})
	return net
}

// SellAll liquidates the entire held position in symbol at price.
func (p *Portfolio) SellAll(sym adapter.Symbol, price float64, date time.Time) float64 {
	return p.Sell(sym, p.holdings[sym], price, date)
}

// ComputeNAV returns cash plus the mark-to-market value of all holdings
// using the supplied prices map. A holding with no price in the map
// contributes zero (missing-price policy, not a panic).
func (p *Portfolio) ComputeNAV(prices map[adapter.Symbol]float64) float64 {
	nav := p.cash
	for sym, shares := range p.holdings {
		if price, ok := prices[sym]; ok {
			nav += shares * price
		}
	}
	return nav
}

// TakeSnapshot appends a Snapshot for date using the supplied prices.
// Snapshots must be appended in strictly increasing date order by the
// caller (the Backtest Engine's date loop guarantees this).
func (p *Portfolio) TakeSnapshot(date time.Time, prices map[adapter.Symbol]float64) Snapshot {
	snap := Snapshot{
		Date:         date,
		NAV:          p.ComputeNAV(prices),
		Cash:         p.cash,
		HoldingCount: len(p.holdings),
	}
	p.snapshots = append(p.snapshots, snap)
	return snap
}

// Shares returns the currently held share count for a symbol (0 if
// absent).
func (p *Portfolio) Shares(sym adapter.Symbol) float64 { return p.holdings[sym] }

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// TotalCosts returns the cumulative cost across all trades.
func (p *Portfolio) TotalCosts() float64 { return p.totalCosts }

// Trades returns the full, execution-ordered trade ledger.
func (p *Portfolio) Trades() []Trade { return p.trades }

// Snapshots returns the full, date-ordered snapshot sequence.
func (p *Portfolio) Snapshots() []Snapshot { return p.snapshots }

// HoldingSymbols returns the currently held symbols in no particular
// order.
func (p *Portfolio) HoldingSymbols() []adapter.Symbol {
	out := make([]adapter.Symbol, 0, len(p.holdings))
	for sym := range p.holdings {
		out = append(out, sym)
	}
	return out
}

// NAVSeries extracts the NAV values from the snapshot sequence.
func (p *Portfolio) NAVSeries() []float64 {
	out := make([]float64, len(p.snapshots))
	for i, s := range p.snapshots {
		out[i] = s.NAV
	}
	return out
}
