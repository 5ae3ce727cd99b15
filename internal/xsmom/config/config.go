// Package config defines the Backtest/Factor-Study/Sweep configuration
// surface, loadable from and savable to YAML. CLI flags do not override
// individual fields of a loaded file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sawpanic/xsmom/internal/xsmom/rebalance"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// FreqDays maps a rebalance-frequency code to its trading-day stride.
var FreqDays = map[string]int{
	"D":  1,
	"3D": 3,
	"W":  5,
	"2W": 10,
	"M":  21,
}

// BacktestConfig is the full Backtest Engine configuration surface
// (spec §6).
type BacktestConfig struct {
	Market             string            `yaml:"market"`
	ScoreMethod        scoring.Method    `yaml:"score_method"`
	TopN               int               `yaml:"top_n"`
	SellBuffer         int               `yaml:"sell_buffer"`
	Weighting          rebalance.Weighting `yaml:"weighting"`
	RebalanceFreq      string            `yaml:"rebalance_freq"`
	TransactionCostBps float64           `yaml:"transaction_cost_bps"`
	InitialCapital     float64           `yaml:"initial_capital"`
	BenchmarkSymbol    string            `yaml:"benchmark_symbol"`
	StartDate          *time.Time        `yaml:"start_date"`
	EndDate            *time.Time        `yaml:"end_date"`
}

// CostRate converts the configured basis points to a fraction.
func (c BacktestConfig) CostRate() float64 { return c.TransactionCostBps / 10_000 }

// Validate rejects only the one fatal configuration contradiction named
// by the spec: start_date after end_date.
func (c BacktestConfig) Validate() error {
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return fmt.Errorf("xsmom/config: start_date %s is after end_date %s", c.StartDate, c.EndDate)
	}
	return nil
}

// Label renders a short human-readable identifier for logs/reports.
func (c BacktestConfig) Label() string {
	return fmt.Sprintf("%s-%s-top%d-buf%d-%s-%s",
		c.Market, c.ScoreMethod, c.TopN, c.SellBuffer, c.Weighting, c.RebalanceFreq)
}

// USPreset returns equity-market defaults.
func USPreset() BacktestConfig {
	return BacktestConfig{
		Market:             "equities",
		ScoreMethod:        scoring.MethodB,
		TopN:               10,
		SellBuffer:         5,
		Weighting:          rebalance.Equal,
		RebalanceFreq:      "M",
		TransactionCostBps: 5.0,
		InitialCapital:     1_000_000,
		BenchmarkSymbol:    "SPY",
	}
}

// CryptoPreset returns perpetual-futures defaults.
func CryptoPreset() BacktestConfig {
	return BacktestConfig{
		Market:             "perpetuals",
		ScoreMethod:        scoring.MethodB,
		TopN:               10,
		SellBuffer:         3,
		Weighting:          rebalance.Equal,
		RebalanceFreq:      "W",
		TransactionCostBps: 4.0,
		InitialCapital:     1_000_000,
		BenchmarkSymbol:    "BTCUSDT",
	}
}

// usHorizons / cryptoHorizons are the default forward-return horizons
// for factor studies, distinguished by market cadence.
var usHorizons = []int{5, 10, 20, 40, 60}
var cryptoHorizons = []int{1, 3, 5, 7, 14}

// FactorStudyConfig configures the Factor Study Framework.
type FactorStudyConfig struct {
	Market           string     `yaml:"market"`
	ComputationFreq  string     `yaml:"computation_freq"`
	ForwardHorizons  []int      `yaml:"forward_horizons"`
	NQuantiles       int        `yaml:"n_quantiles"`
	StartDate        *time.Time `yaml:"start_date"`
	EndDate          *time.Time `yaml:"end_date"`
}

// Defaults fills ForwardHorizons and NQuantiles when unset, matching the
// original's __post_init__ market-based defaulting.
func (c *FactorStudyConfig) Defaults() {
	if len(c.ForwardHorizons) == 0 {
		if c.Market == "perpetuals" {
			c.ForwardHorizons = append([]int(nil), cryptoHorizons...)
		} else {
			c.ForwardHorizons = append([]int(nil), usHorizons...)
		}
	}
	if c.NQuantiles == 0 {
		c.NQuantiles = 5
	}
	if c.ComputationFreq == "" {
		if c.Market == "perpetuals" {
			c.ComputationFreq = "D"
		} else {
			c.ComputationFreq = "W"
		}
	}
}

// USFactorStudy returns equity-market factor-study defaults.
func USFactorStudy() FactorStudyConfig {
	c := FactorStudyConfig{Market: "equities"}
	c.Defaults()
	return c
}

// CryptoFactorStudy returns perpetual-futures factor-study defaults.
func CryptoFactorStudy() FactorStudyConfig {
	c := FactorStudyConfig{Market: "perpetuals"}
	c.Defaults()
	return c
}

// SweepGrid names the parameter dimensions a sweep Cartesian-products
// over.
type SweepGrid struct {
	ScoreMethods   []scoring.Method       `yaml:"score_methods"`
	TopNs          []int                  `yaml:"top_ns"`
	RebalanceFreqs []string               `yaml:"rebalance_freqs"`
	SellBuffers    []int                  `yaml:"sell_buffers"`
}

// USSweepGrid is the default equity sweep grid.
func USSweepGrid() SweepGrid {
	return SweepGrid{
		ScoreMethods:   []scoring.Method{scoring.MethodB, scoring.MethodC},
		TopNs:          []int{5, 10, 15, 20},
		RebalanceFreqs: []string{"W", "2W", "M"},
		SellBuffers:    []int{0, 3, 5, 10},
	}
}

// CryptoSweepGrid is the default perpetual-futures sweep grid.
func CryptoSweepGrid() SweepGrid {
	return SweepGrid{
		ScoreMethods:   []scoring.Method{scoring.MethodB, scoring.MethodC},
		TopNs:          []int{5, 10, 15, 20},
		RebalanceFreqs: []string{"D", "3D", "W"},
		SellBuffers:    []int{0, 2, 3, 5},
	}
}

// Load reads a BacktestConfig from a YAML file at path.
func Load(path string) (BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("xsmom/config: read %s: %w", path, err)
	}
	var cfg BacktestConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BacktestConfig{}, fmt.Errorf("xsmom/config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg BacktestConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("xsmom/config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
