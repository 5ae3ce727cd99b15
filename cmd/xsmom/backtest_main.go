package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/xsmom/internal/xsmom/cliutil"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/engine"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a single cross-sectional momentum backtest",
		RunE:  runBacktest,
	}

	cmd.Flags().String("market", "equities", "Market dialect (equities|perpetuals)")
	cmd.Flags().String("config", "", "Path to a YAML BacktestConfig (overrides --market preset)")
	cmd.Flags().String("table", "", "Price table name override")
	cmd.Flags().String("output", "", "Write the run result as JSON to this path (default: stdout)")

	return cmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	market, _ := cmd.Flags().GetString("market")
	configPath, _ := cmd.Flags().GetString("config")
	table, _ := cmd.Flags().GetString("table")
	outputPath, _ := cmd.Flags().GetString("output")
	dsn, _ := cmd.Flags().GetString("dsn")

	cfg, err := loadBacktestConfig(configPath, market)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := cliutil.ResolveDialect(cfg.Market)
	if err != nil {
		return err
	}

	a, err := cliutil.BuildSQLAdapter(cfg.Market, dsn, table)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Running backtest: %s\n", cfg.Label())
	log.Info().Str("label", cfg.Label()).Msg("backtest: starting")

	scoreFn := scoring.Resolve(cfg.ScoreMethod, d)
	result := engine.New(cfg, a, scoreFn).Run()

	fmt.Printf("Run %s complete: CAGR=%.2f%% Sharpe=%.2f MaxDD=%.2f%% Trades=%d\n",
		result.RunID, result.Metrics.CAGR*100, result.Metrics.SharpeRatio,
		result.Metrics.MaxDrawdown*100, result.Metrics.NTrades)

	return writeResult(result, outputPath)
}

func loadBacktestConfig(path, market string) (config.BacktestConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	if market == "perpetuals" || market == "crypto" {
		return config.CryptoPreset(), nil
	}
	return config.USPreset(), nil
}

func writeResult(result engine.Result, outputPath string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("xsmom: marshal result: %w", err)
	}
	if outputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(outputPath, data, 0644)
}
