package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/xsmom/internal/xsmom/persistence"
)

func newMockRepo(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, persistence.RunsRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	repo := NewRunsRepo(sqlxDB, 5*time.Second)
	return sqlxDB, mock, repo
}

func TestRunsRepo_InsertMarshalsConfigAndMetricsAsJSON(t *testing.T) {
	sqlxDB, mock, repo := newMockRepo(t)
	defer sqlxDB.Close()

	run := persistence.BacktestRun{
		RunID:      "run-1",
		Market:     "equities",
		Label:      "equities-B-top10",
		Config:     map[string]interface{}{"top_n": float64(10)},
		Metrics:    map[string]interface{}{"sharpe": 1.5},
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO backtest_runs`).
		WithArgs(run.RunID, run.Market, run.Label, sqlmock.AnyArg(), sqlmock.AnyArg(), run.StartedAt, run.FinishedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	err := repo.Insert(context.Background(), run)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunsRepo_GetByRunIDUnmarshalsJSONBColumns(t *testing.T) {
	sqlxDB, mock, repo := newMockRepo(t)
	defer sqlxDB.Close()

	cfgJSON, _ := json.Marshal(map[string]interface{}{"top_n": float64(10)})
	metricsJSON, _ := json.Marshal(map[string]interface{}{"sharpe": 1.5})
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "run_id", "market", "label", "config", "metrics", "started_at", "finished_at", "created_at"}).
		AddRow(int64(1), "run-1", "equities", "equities-B-top10", cfgJSON, metricsJSON, now, now, now)

	mock.ExpectQuery(`SELECT id, run_id, market, label, config, metrics, started_at, finished_at, created_at`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.GetByRunID(context.Background(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, float64(10), run.Config["top_n"])
	assert.Equal(t, 1.5, run.Metrics["sharpe"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunsRepo_GetByRunIDNotFoundWrapsError(t *testing.T) {
	sqlxDB, mock, repo := newMockRepo(t)
	defer sqlxDB.Close()

	mock.ExpectQuery(`SELECT id, run_id, market, label, config, metrics, started_at, finished_at, created_at`).
		WithArgs("missing").
		WillReturnError(sqlError{})

	run, err := repo.GetByRunID(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, run)
}

func TestRunsRepo_CountScansSingleValue(t *testing.T) {
	sqlxDB, mock, repo := newMockRepo(t)
	defer sqlxDB.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM backtest_runs`).
		WithArgs(time.Unix(0, 0), time.Unix(100, 0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.Count(context.Background(), persistence.TimeRange{From: time.Unix(0, 0), To: time.Unix(100, 0)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestWalkForwardRepo_InsertRoundAndListByRunID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	defer sqlxDB.Close()
	repo := NewWalkForwardRepo(sqlxDB, 5*time.Second)

	round := persistence.WalkForwardRoundRecord{
		RunID:           "run-1",
		RoundNum:        1,
		TrainStart:      time.Now(),
		TrainEnd:        time.Now(),
		TestStart:       time.Now(),
		TestEnd:         time.Now(),
		BestConfigLabel: "equities-B-top10",
		InSampleSharpe:  1.2,
		OutSampleSharpe: 0.9,
		OutSampleMaxDD:  -0.15,
	}

	mock.ExpectQuery(`INSERT INTO walk_forward_rounds`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))
	require.NoError(t, repo.InsertRound(context.Background(), round))

	now := time.Now()
	mock.ExpectQuery(`SELECT id, run_id, round_num, train_start, train_end, test_start, test_end`).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "run_id", "round_num", "train_start", "train_end", "test_start", "test_end",
			"best_config_label", "in_sample_sharpe", "out_sample_sharpe", "out_sample_max_dd", "created_at",
		}).AddRow(int64(1), "run-1", 1, now, now, now, now, "equities-B-top10", 1.2, 0.9, -0.15, now))

	rounds, err := repo.ListByRunID(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 1, rounds[0].RoundNum)
	require.NoError(t, mock.ExpectationsWereMet())
}

// sqlError is a minimal error type standing in for pq/sql.ErrNoRows in
// mock expectations.
type sqlError struct{}

func (sqlError) Error() string { return "no rows in result set" }
