// Package engine implements the Backtest Engine: a date loop that
// orchestrates the Adapter, Scoring, Rebalancer and Portfolio components
// and enforces no-look-ahead at every rebalance.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/perfmetrics"
	"github.com/sawpanic/xsmom/internal/xsmom/portfolio"
	"github.com/sawpanic/xsmom/internal/xsmom/rebalance"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// Result is the full output of one backtest run.
type Result struct {
	RunID      string
	Config     config.BacktestConfig
	Metrics    perfmetrics.Metrics
	Portfolio  *portfolio.Portfolio
	NAVSeries  []float64
	TradeDates []time.Time
}

// Engine runs a single backtest over an Adapter with a fixed Config. An
// Engine is single-use per run, matching the spec's stated lifecycle.
type Engine struct {
	cfg     config.BacktestConfig
	adapter adapter.Adapter
	scoreFn scoring.ScoreFunc
	rebal   *rebalance.Rebalancer
}

// New constructs an Engine. scoreFn should be resolved via
// scoring.Resolve(cfg.ScoreMethod, dialect) by the caller, keeping the
// engine itself dialect-agnostic.
func New(cfg config.BacktestConfig, a adapter.Adapter, scoreFn scoring.ScoreFunc) *Engine {
	return &Engine{
		cfg:     cfg,
		adapter: a,
		scoreFn: scoreFn,
		rebal:   rebalance.New(cfg.TopN, cfg.SellBuffer, cfg.Weighting),
	}
}

// inRange reports whether d falls within the configured [start, end]
// bounds (unset bounds are unbounded on that side).
func (e *Engine) inRange(d time.Time) bool {
	if e.cfg.StartDate != nil && d.Before(*e.cfg.StartDate) {
		return false
	}
	if e.cfg.EndDate != nil && d.After(*e.cfg.EndDate) {
		return false
	}
	return true
}

// buildRebalanceSet strides every k-th element of the filtered date
// sequence, k from FreqDays. The first in-range trading day is always
// included.
func buildRebalanceSet(dates []time.Time, k int) map[time.Time]struct{} {
	set := make(map[time.Time]struct{})
	if k <= 0 {
		k = 1
	}
	for i := 0; i < len(dates); i += k {
		set[dates[i]] = struct{}{}
	}
	return set
}

// Run executes the full event loop and returns the final Result.
// EmptyTradingDates (no dates survive the [start,end] filter) returns a
// zero-metric result rather than erroring.
func (e *Engine) Run() Result {
	runID := uuid.NewString()

	all := e.adapter.TradingDates()
	var dates []time.Time
	for _, d := range all {
		if e.inRange(d) {
			dates = append(dates, d)
		}
	}

	if len(dates) == 0 {
		log.Warn().Str("run_id", runID).Msg("xsmom/engine: empty trading-date range, returning zero-metric result")
		return Result{RunID: runID, Config: e.cfg, Portfolio: portfolio.New(e.cfg.InitialCapital, e.cfg.CostRate())}
	}

	k := config.FreqDays[e.cfg.RebalanceFreq]
	rebalanceSet := buildRebalanceSet(dates, k)

	pf := portfolio.New(e.cfg.InitialCapital, e.cfg.CostRate())
	var cumulativeTurnover float64

	log.Info().
		Str("run_id", runID).
		Str("config", e.cfg.Label()).
		Int("trading_days", len(dates)).
		Msg("xsmom/engine: starting backtest run")

	for _, d := range dates {
		pricesD := e.adapter.PricesAt(d)
		if len(pricesD) == 0 {
			continue
		}

		if _, ok := rebalanceSet[d]; ok {
			cumulativeTurnover += e.rebalanceStep(d, pricesD, pf)
		}

		pf.TakeSnapshot(d, pricesD)
	}

	var benchmarkNAV []float64
	if e.cfg.BenchmarkSymbol != "" {
		if series, ok := e.adapter.BenchmarkSeries(adapter.NormalizeSymbol(e.cfg.BenchmarkSymbol)); ok {
			benchmarkNAV = truncateBenchmark(series, dates)
		} else {
			log.Warn().Str("run_id", runID).Str("benchmark", e.cfg.BenchmarkSymbol).
				Msg("xsmom/engine: benchmark symbol absent, relative metrics will be zero")
		}
	}

	navSeries := pf.NAVSeries()
	years := float64(len(dates)) / e.adapter.AnnualizationFactor()
	annualTurnover := 0.0
	if years > 0 {
		avgNAV := mean(navSeries)
		if avgNAV > 1e-10 {
			annualTurnover = cumulativeTurnover / avgNAV / years
		}
	}

	metrics := perfmetrics.Compute(perfmetrics.Inputs{
		NAV:                 navSeries,
		BenchmarkNAV:        benchmarkNAV,
		TotalCosts:          pf.TotalCosts(),
		NTrades:             len(pf.Trades()),
		AnnualTurnover:       annualTurnover,
		AnnualizationFactor: e.adapter.AnnualizationFactor(),
	})

	log.Info().
		Str("run_id", runID).
		Float64("cagr", metrics.CAGR).
		Float64("sharpe", metrics.SharpeRatio).
		Int("n_trades", metrics.NTrades).
		Msg("xsmom/engine: backtest run complete")

	return Result{
		RunID:      runID,
		Config:     e.cfg,
		Metrics:    metrics,
		Portfolio:  pf,
		NAVSeries:  navSeries,
		TradeDates: dates,
	}
}

// rebalanceStep performs one rebalance decision and its trades, returning
// the notional turnover generated (sells plus incremental buys).
func (e *Engine) rebalanceStep(d time.Time, pricesD map[adapter.Symbol]float64, pf *portfolio.Portfolio) float64 {
	sliced := e.adapter.SliceToDate(d) // the single no-look-ahead gate
	ranking := e.scoreFn(sliced)

	holdings := make(map[adapter.Symbol]struct{})
	for _, s := range pf.HoldingSymbols() {
		holdings[s] = struct{}{}
	}

	if len(ranking) == 0 {
		// EmptyUniverse: scoring returned nothing. Preserve holdings,
		// do not trade.
		return 0
	}

	action := e.rebal.Compute(ranking, holdings)
	weights := e.rebal.Weights(action, ranking)

	navPre := pf.ComputeNAV(pricesD)
	var turnover float64

	for _, s := range action.ToSell {
		if price, ok := pricesD[s]; ok {
			shares := pf.Shares(s)
			pf.SellAll(s, price, d)
			turnover += shares * price
		}
	}

	target := append(append([]adapter.Symbol(nil), action.ToBuy...), action.ToHold...)
	for _, s := range target {
		price, ok := pricesD[s]
		if !ok {
			continue
		}
		targetNotional := navPre * weights[s]
		current := pf.Shares(s) * price
		if targetNotional > current {
			gap := targetNotional - current
			before := pf.Cash()
			pf.Buy(s, gap, price, d)
			spent := before - pf.Cash()
			turnover += spent
		}
	}

	return turnover
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// truncateBenchmark restricts the benchmark's close series to the dates
// the strategy actually produced snapshots for, preserving alignment for
// relative-metric computation.
func truncateBenchmark(series adapter.PriceSeries, dates []time.Time) []float64 {
	if len(dates) == 0 {
		return nil
	}
	out := make([]float64, 0, len(dates))
	for _, d := range dates {
		if c, ok := series.CloseAt(d); ok {
			out = append(out, c)
		}
	}
	if len(out) < 2 {
		return nil
	}
	return out
}
