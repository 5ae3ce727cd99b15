// Package postgres implements the persistence repositories against a
// PostgreSQL-backed store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/xsmom/internal/xsmom/persistence"
)

type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL-backed RunsRepo.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) persistence.RunsRepo {
	return &runsRepo{db: db, timeout: timeout}
}

func (r *runsRepo) Insert(ctx context.Context, run persistence.BacktestRun) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("xsmom/persistence: marshal config: %w", err)
	}
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("xsmom/persistence: marshal metrics: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (run_id, market, label, config, metrics, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return r.db.QueryRowxContext(ctx, query,
		run.RunID, run.Market, run.Label, configJSON, metricsJSON, run.StartedAt, run.FinishedAt).
		Scan(&run.ID, &run.CreatedAt)
}

func (r *runsRepo) GetByRunID(ctx context.Context, runID string) (*persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row runRow
	query := `
		SELECT id, run_id, market, label, config, metrics, started_at, finished_at, created_at
		FROM backtest_runs WHERE run_id = $1`
	if err := r.db.GetContext(ctx, &row, query, runID); err != nil {
		return nil, fmt.Errorf("xsmom/persistence: get run %s: %w", runID, err)
	}
	run, err := row.toDomain()
	return &run, err
}

func (r *runsRepo) ListByMarket(ctx context.Context, market string, tr persistence.TimeRange, limit int) ([]persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []runRow
	query := `
		SELECT id, run_id, market, label, config, metrics, started_at, finished_at, created_at
		FROM backtest_runs
		WHERE market = $1 AND started_at >= $2 AND started_at <= $3
		ORDER BY started_at DESC
		LIMIT $4`
	if err := r.db.SelectContext(ctx, &rows, query, market, tr.From, tr.To, limit); err != nil {
		return nil, fmt.Errorf("xsmom/persistence: list runs for %s: %w", market, err)
	}
	return toDomainSlice(rows)
}

func (r *runsRepo) ListRecent(ctx context.Context, limit int) ([]persistence.BacktestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []runRow
	query := `
		SELECT id, run_id, market, label, config, metrics, started_at, finished_at, created_at
		FROM backtest_runs
		ORDER BY started_at DESC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("xsmom/persistence: list recent runs: %w", err)
	}
	return toDomainSlice(rows)
}

func (r *runsRepo) Count(ctx context.Context, tr persistence.TimeRange) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM backtest_runs WHERE started_at >= $1 AND started_at <= $2`
	if err := r.db.GetContext(ctx, &count, query, tr.From, tr.To); err != nil {
		return 0, fmt.Errorf("xsmom/persistence: count runs: %w", err)
	}
	return count, nil
}

// runRow is the raw database row shape; config/metrics arrive as JSONB
// bytes and are unmarshaled into the domain's map[string]interface{}.
type runRow struct {
	ID         int64     `db:"id"`
	RunID      string    `db:"run_id"`
	Market     string    `db:"market"`
	Label      string    `db:"label"`
	Config     []byte    `db:"config"`
	Metrics    []byte    `db:"metrics"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row runRow) toDomain() (persistence.BacktestRun, error) {
	var cfg, metrics map[string]interface{}
	if err := json.Unmarshal(row.Config, &cfg); err != nil {
		return persistence.BacktestRun{}, fmt.Errorf("xsmom/persistence: unmarshal config: %w", err)
	}
	if err := json.Unmarshal(row.Metrics, &metrics); err != nil {
		return persistence.BacktestRun{}, fmt.Errorf("xsmom/persistence: unmarshal metrics: %w", err)
	}
	return persistence.BacktestRun{
		ID: row.ID, RunID: row.RunID, Market: row.Market, Label: row.Label,
		Config: cfg, Metrics: metrics,
		StartedAt: row.StartedAt, FinishedAt: row.FinishedAt, CreatedAt: row.CreatedAt,
	}, nil
}

func toDomainSlice(rows []runRow) ([]persistence.BacktestRun, error) {
	out := make([]persistence.BacktestRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

type walkForwardRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewWalkForwardRepo creates a PostgreSQL-backed WalkForwardRepo.
func NewWalkForwardRepo(db *sqlx.DB, timeout time.Duration) persistence.WalkForwardRepo {
	return &walkForwardRepo{db: db, timeout: timeout}
}

func (r *walkForwardRepo) InsertRound(ctx context.Context, round persistence.WalkForwardRoundRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO walk_forward_rounds
			(run_id, round_num, train_start, train_end, test_start, test_end,
			 best_config_label, in_sample_sharpe, out_sample_sharpe, out_sample_max_dd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return r.db.QueryRowxContext(ctx, query,
		round.RunID, round.RoundNum, round.TrainStart, round.TrainEnd, round.TestStart, round.TestEnd,
		round.BestConfigLabel, round.InSampleSharpe, round.OutSampleSharpe, round.OutSampleMaxDD).
		Scan(&round.ID, &round.CreatedAt)
}

func (r *walkForwardRepo) ListByRunID(ctx context.Context, runID string) ([]persistence.WalkForwardRoundRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rounds []persistence.WalkForwardRoundRecord
	query := `
		SELECT id, run_id, round_num, train_start, train_end, test_start, test_end,
		       best_config_label, in_sample_sharpe, out_sample_sharpe, out_sample_max_dd, created_at
		FROM walk_forward_rounds
		WHERE run_id = $1
		ORDER BY round_num ASC`
	if err := r.db.SelectContext(ctx, &rounds, query, runID); err != nil {
		return nil, fmt.Errorf("xsmom/persistence: list walk-forward rounds for %s: %w", runID, err)
	}
	return rounds, nil
}
