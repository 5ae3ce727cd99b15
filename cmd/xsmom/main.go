package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "xsmom"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Cross-sectional momentum backtesting and factor research",
		Version: version,
		Long: `xsmom backtests cross-sectional momentum strategies across equities
and perpetual futures, with a factor-study framework and a walk-forward
parameter optimizer layered on top.`,
	}

	rootCmd.PersistentFlags().String("dsn", os.Getenv("XSMOM_DSN"), "PostgreSQL DSN for price data (or $XSMOM_DSN)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			parsed = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(parsed)
	}

	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newWalkForwardCmd())
	rootCmd.AddCommand(newFactorStudyCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("xsmom: command failed")
		os.Exit(1)
	}
}
