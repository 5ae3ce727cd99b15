// Package persistence defines storage-backed repositories for backtest
// run results and walk-forward validation rounds.
package persistence

import (
	"context"
	"time"
)

// TimeRange represents a time window for result queries.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// BacktestRun is one persisted backtest execution: its configuration,
// computed metrics, and run metadata.
type BacktestRun struct {
	ID         int64                  `json:"id" db:"id"`
	RunID      string                 `json:"run_id" db:"run_id"`
	Market     string                 `json:"market" db:"market"`
	Label      string                 `json:"label" db:"label"`
	Config     map[string]interface{} `json:"config" db:"config"`
	Metrics    map[string]interface{} `json:"metrics" db:"metrics"`
	StartedAt  time.Time              `json:"started_at" db:"started_at"`
	FinishedAt time.Time              `json:"finished_at" db:"finished_at"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// WalkForwardRoundRecord is one persisted walk-forward train/test round,
// scoped to a parent sweep/validation run.
type WalkForwardRoundRecord struct {
	ID              int64     `json:"id" db:"id"`
	RunID           string    `json:"run_id" db:"run_id"`
	RoundNum        int       `json:"round_num" db:"round_num"`
	TrainStart      time.Time `json:"train_start" db:"train_start"`
	TrainEnd        time.Time `json:"train_end" db:"train_end"`
	TestStart       time.Time `json:"test_start" db:"test_start"`
	TestEnd         time.Time `json:"test_end" db:"test_end"`
	BestConfigLabel string    `json:"best_config_label" db:"best_config_label"`
	InSampleSharpe  float64   `json:"in_sample_sharpe" db:"in_sample_sharpe"`
	OutSampleSharpe float64   `json:"out_sample_sharpe" db:"out_sample_sharpe"`
	OutSampleMaxDD  float64   `json:"out_sample_max_dd" db:"out_sample_max_dd"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// RunsRepo persists and retrieves backtest run results.
type RunsRepo interface {
	// Insert stores a completed run.
	Insert(ctx context.Context, run BacktestRun) error

	// GetByRunID fetches a single run by its UUID.
	GetByRunID(ctx context.Context, runID string) (*BacktestRun, error)

	// ListByMarket retrieves runs for a market within a time range, most
	// recent first.
	ListByMarket(ctx context.Context, market string, tr TimeRange, limit int) ([]BacktestRun, error)

	// ListRecent retrieves the most recent runs across all markets.
	ListRecent(ctx context.Context, limit int) ([]BacktestRun, error)

	// Count returns the total number of stored runs in a time range.
	Count(ctx context.Context, tr TimeRange) (int64, error)
}

// WalkForwardRepo persists and retrieves walk-forward validation rounds.
type WalkForwardRepo interface {
	// InsertRound stores one round of a walk-forward validation.
	InsertRound(ctx context.Context, round WalkForwardRoundRecord) error

	// ListByRunID retrieves every round belonging to one validation run,
	// ordered by round number.
	ListByRunID(ctx context.Context, runID string) ([]WalkForwardRoundRecord, error)
}
