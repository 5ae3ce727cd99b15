package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/xsmom/internal/xsmom/cliutil"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/optimizer"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the parameter grid and rank results by robustness",
		RunE:  runSweep,
	}

	cmd.Flags().String("market", "equities", "Market dialect (equities|perpetuals)")
	cmd.Flags().String("table", "", "Price table name override")
	cmd.Flags().Int("top-k", 10, "Number of top candidates to robustness-rank")

	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	market, _ := cmd.Flags().GetString("market")
	table, _ := cmd.Flags().GetString("table")
	topK, _ := cmd.Flags().GetInt("top-k")
	dsn, _ := cmd.Flags().GetString("dsn")

	base, grid := presetAndGrid(market)

	d, err := cliutil.ResolveDialect(base.Market)
	if err != nil {
		return err
	}
	a, err := cliutil.BuildSQLAdapter(base.Market, dsn, table)
	if err != nil {
		return err
	}
	defer a.Close()

	candidates, err := optimizer.RunSweep(base, grid, d, a)
	if err != nil {
		return err
	}

	ranked := optimizer.RankWithRobustness(candidates, topK)

	fmt.Printf("Sweep complete: %d combinations, top %d by robustness:\n\n", len(candidates), len(ranked))
	for i, r := range ranked {
		fmt.Printf("%2d. %-40s sharpe=%.2f robustness=%.2f (neighbors=%d)\n",
			i+1, r.Label, r.Metrics.SharpeRatio, r.RobustnessScore, r.NeighborCount)
	}
	return nil
}

func presetAndGrid(market string) (config.BacktestConfig, config.SweepGrid) {
	if market == "perpetuals" || market == "crypto" {
		return config.CryptoPreset(), config.CryptoSweepGrid()
	}
	return config.USPreset(), config.USSweepGrid()
}
