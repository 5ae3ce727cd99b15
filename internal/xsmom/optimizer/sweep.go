// Package optimizer implements the two-layer anti-overfitting toolkit:
// robustness-weighted ranking over a parameter sweep, and Walk-Forward
// rolling validation.
package optimizer

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
	"github.com/sawpanic/xsmom/internal/xsmom/engine"
	"github.com/sawpanic/xsmom/internal/xsmom/perfmetrics"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// Candidate is one parameter combination's backtest result.
type Candidate struct {
	Config  config.BacktestConfig
	Metrics perfmetrics.Metrics
	Label   string
}

// RunSweep Cartesian-products grid against base, runs the backtest engine
// once per combination against a single preloaded adapter, and returns
// one Candidate per combination sorted by Sharpe ratio descending.
func RunSweep(base config.BacktestConfig, grid config.SweepGrid, d dialect.Dialect, a adapter.Adapter) ([]Candidate, error) {
	if err := a.LoadAll(); err != nil {
		return nil, err
	}

	combos := combinations(grid)
	log.Info().Int("combinations", len(combos)).Str("market", base.Market).Msg("optimizer: parameter sweep starting")

	out := make([]Candidate, 0, len(combos))
	for i, combo := range combos {
		cfg := base
		cfg.ScoreMethod = combo.ScoreMethod
		cfg.TopN = combo.TopN
		cfg.RebalanceFreq = combo.RebalanceFreq
		cfg.SellBuffer = combo.SellBuffer

		scoreFn := scoring.Resolve(cfg.ScoreMethod, d)
		eng := engine.New(cfg, a, scoreFn)
		result := eng.Run()

		out = append(out, Candidate{Config: cfg, Metrics: result.Metrics, Label: cfg.Label()})

		if (i+1)%10 == 0 {
			log.Info().Int("done", i+1).Int("total", len(combos)).Msg("optimizer: sweep progress")
		}
	}

	sortBySharpeDesc(out)
	return out, nil
}

type combo struct {
	ScoreMethod   scoring.Method
	TopN          int
	RebalanceFreq string
	SellBuffer    int
}

func combinations(grid config.SweepGrid) []combo {
	var out []combo
	for _, m := range grid.ScoreMethods {
		for _, n := range grid.TopNs {
			for _, f := range grid.RebalanceFreqs {
				for _, b := range grid.SellBuffers {
					out = append(out, combo{ScoreMethod: m, TopN: n, RebalanceFreq: f, SellBuffer: b})
				}
			}
		}
	}
	return out
}

func sortBySharpeDesc(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool { return cands[i].Metrics.SharpeRatio > cands[j].Metrics.SharpeRatio })
}
