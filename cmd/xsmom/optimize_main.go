package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/xsmom/internal/xsmom/cliutil"
	"github.com/sawpanic/xsmom/internal/xsmom/optimizer"
)

func newWalkForwardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walkforward",
		Short: "Run rolling Walk-Forward validation over the parameter grid",
		RunE:  runWalkForward,
	}

	cmd.Flags().String("market", "equities", "Market dialect (equities|perpetuals)")
	cmd.Flags().String("table", "", "Price table name override")
	cmd.Flags().Int("train-months", 36, "Training window length in months")
	cmd.Flags().Int("test-months", 12, "Test window length in months")
	cmd.Flags().Int("step-months", 12, "Step between windows in months")

	return cmd
}

func runWalkForward(cmd *cobra.Command, args []string) error {
	market, _ := cmd.Flags().GetString("market")
	table, _ := cmd.Flags().GetString("table")
	trainMonths, _ := cmd.Flags().GetInt("train-months")
	testMonths, _ := cmd.Flags().GetInt("test-months")
	stepMonths, _ := cmd.Flags().GetInt("step-months")
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

	result, err := optimizer.WalkForward(base, grid, d, a, trainMonths, testMonths, stepMonths)
	if err != nil {
		return err
	}

	fmt.Printf("Walk-Forward complete: %d rounds\n", len(result.Rounds))
	fmt.Printf("  avg in-sample sharpe:  %.2f\n", result.AvgInSampleSharpe)
	fmt.Printf("  avg out-sample sharpe: %.2f\n", result.AvgOutSampleSharpe)
	fmt.Printf("  overfit ratio:         %.2f\n", result.OverfitRatio)
	fmt.Printf("  param consistency:     %.2f\n", result.ParamConsistency)
	if result.RecommendedConfig != nil {
		fmt.Printf("  recommended config:    %s\n", result.RecommendedConfig.Label())
	}
	for _, r := range result.Rounds {
		fmt.Printf("  round %d: train %s→%s test %s→%s sharpe in=%.2f out=%.2f maxdd=%.2f%%\n",
			r.RoundNum, r.TrainStart.Format("2006-01-02"), r.TrainEnd.Format("2006-01-02"),
			r.TestStart.Format("2006-01-02"), r.TestEnd.Format("2006-01-02"),
			r.InSampleSharpe, r.OutSampleSharpe, r.OutSampleMaxDD*100)
	}
	return nil
}
