package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/xsmom/internal/xsmom/api"
	"github.com/sawpanic/xsmom/internal/xsmom/persistence/postgres"
	"github.com/sawpanic/xsmom/internal/xsmom/telemetry"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local results API, progress WebSocket, and Prometheus metrics",
		RunE:  runServe,
	}

	cmd.Flags().Int("port", 8090, "Results API port")
	cmd.Flags().Int("metrics-port", 9090, "Prometheus /metrics port")
	cmd.Flags().Duration("query-timeout", 10*time.Second, "Database query timeout")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	metricsPort, _ := cmd.Flags().GetInt("metrics-port")
	timeout, _ := cmd.Flags().GetDuration("query-timeout")
	dsn, _ := cmd.Flags().GetString("dsn")

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("xsmom/serve: open db: %w", err)
	}
	defer db.Close()

	runsRepo := postgres.NewRunsRepo(db, timeout)
	wfRepo := postgres.NewWalkForwardRepo(db, timeout)

	cfg := api.DefaultServerConfig()
	cfg.Port = port
	server, err := api.NewServer(cfg, runsRepo, wfRepo)
	if err != nil {
		return err
	}

	registry := telemetry.NewRegistry()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", registry.Handler())
	metricsServer := &http.Server{Addr: fmt.Sprintf(":%d", metricsPort), Handler: metricsMux}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Int("port", metricsPort).Msg("xsmom/serve: metrics endpoint listening")
		errCh <- metricsServer.ListenAndServe()
	}()
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info().Msg("xsmom/serve: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = metricsServer.Shutdown(ctx)
		return nil
	}
}
