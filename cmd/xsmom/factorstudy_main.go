package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/xsmom/internal/xsmom/cliutil"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/factorstudy"
)

func newFactorStudyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factorstudy",
		Short: "Run the dual-track factor study (IC analysis + event study)",
		RunE:  runFactorStudy,
	}

	cmd.Flags().String("market", "equities", "Market dialect (equities|perpetuals)")
	cmd.Flags().String("table", "", "Price table name override")
	cmd.Flags().StringSlice("factors", factorstudy.ListFactors(), "Factor names to study")

	return cmd
}

func runFactorStudy(cmd *cobra.Command, args []string) error {
	market, _ := cmd.Flags().GetString("market")
	table, _ := cmd.Flags().GetString("table")
	names, _ := cmd.Flags().GetStringSlice("factors")
	dsn, _ := cmd.Flags().GetString("dsn")

	var cfg config.FactorStudyConfig
	if market == "perpetuals" || market == "crypto" {
		cfg = config.CryptoFactorStudy()
	} else {
		cfg = config.USFactorStudy()
	}

	a, err := cliutil.BuildSQLAdapter(cfg.Market, dsn, table)
	if err != nil {
		return err
	}
	defer a.Close()

	runner := factorstudy.NewRunner(cfg, a)
	for _, name := range names {
		f, err := factorstudy.GetFactor(name)
		if err != nil {
			return err
		}
		runner.AddFactor(f)
	}

	results, err := runner.Run()
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Printf("\n=== %s (%d symbols, %d computation dates, %s) ===\n",
			res.FactorName, res.NSymbols, res.NComputationDates, res.Elapsed)
		for horizon, ic := range res.ICResults {
			if ic.Absent {
				fmt.Printf("  IC[%dd]: absent (insufficient observations)\n", horizon)
				continue
			}
			fmt.Printf("  IC[%dd]: mean=%.4f std=%.4f IR=%.2f hit=%.1f%% spread=%.4f n=%d\n",
				horizon, ic.MeanIC, ic.StdIC, ic.ICInformationRatio, ic.ICHitRate*100, ic.TopBottomSpread, ic.NObservations)
		}
		for _, ev := range res.EventResults {
			if ev.Absent {
				continue
			}
			sig := "significant"
			if !ev.Significant {
				sig = "not significant"
			}
			fmt.Printf("  Event[%s][%dd]: n=%d mean=%.4f hit=%.1f%% t=%.2f p=%.3f (%s)\n",
				ev.SignalLabel, ev.Horizon, ev.NEvents, ev.MeanReturn, ev.HitRate*100, ev.TStat, ev.PValue, sig)
		}
	}

	return nil
}
