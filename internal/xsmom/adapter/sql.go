package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/xsmom/internal/xsmom/cache"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
	"github.com/sawpanic/xsmom/internal/xsmom/ratelimit"
	"github.com/sawpanic/xsmom/internal/xsmom/resilience"
)

// SQLConfig configures the Postgres-backed adapter.
type SQLConfig struct {
	DSN           string        `yaml:"dsn"`
	Table         string        `yaml:"table"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
	SliceCacheTTL time.Duration `yaml:"slice_cache_ttl"`
}

// DefaultSQLConfig returns conservative defaults.
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{
		Table:         "ohlcv_bars",
		QueryTimeout:  30 * time.Second,
		RPS:           5,
		Burst:         10,
		SliceCacheTTL: 5 * time.Minute,
	}
}

// row mirrors one OHLCV bar as stored by the ingestion pipeline (out of
// scope for this core; the core only reads it).
type row struct {
	Symbol string    `db:"symbol"`
	Date   time.Time `db:"bar_date"`
	Close  float64   `db:"close"`
	Volume float64   `db:"volume"`
}

// SQLAdapter loads OHLCV history from Postgres once, then behaves
// identically to MemoryAdapter for the remainder of a run: the loaded
// dataset is read-only after LoadAll.
type SQLAdapter struct {
	*MemoryAdapter

	db      *sqlx.DB
	cfg     SQLConfig
	limiter *ratelimit.Limiter
	breaker *resilience.Breaker
	slices  cache.Cache
	key     string
}

// NewSQLAdapter opens a Postgres connection and prepares the rate
// limiter, circuit breaker and slice cache around it. Data is not
// fetched until LoadAll is called.
func NewSQLAdapter(d dialect.Dialect, cfg SQLConfig, key string) (*SQLAdapter, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("xsmom/adapter: DSN is required")
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("xsmom/adapter: open postgres: %w", err)
	}
	return &SQLAdapter{
		MemoryAdapter: NewMemoryAdapter(d, nil),
		db:            db,
		cfg:           cfg,
		limiter:       ratelimit.NewLimiter(cfg.RPS, cfg.Burst),
		breaker:       resilience.New("xsmom-sql-adapter"),
		slices:        cache.NewAuto(),
		key:           key,
	}, nil
}

// LoadAll fetches every symbol's bars in one rate-limited, breaker-
// wrapped query and materializes a MemoryAdapter underneath.
func (a *SQLAdapter) LoadAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.QueryTimeout)
	defer cancel()

	if err := a.limiter.Wait(ctx, a.key); err != nil {
		return fmt.Errorf("xsmom/adapter: rate limit wait: %w", err)
	}

	result, err := a.breaker.Execute(func() (any, error) {
		var rows []row
		query := fmt.Sprintf(`SELECT symbol, bar_date, close, volume FROM %s ORDER BY symbol, bar_date`, a.cfg.Table)
		if err := a.db.SelectContext(ctx, &rows, query); err != nil {
			return nil, fmt.Errorf("xsmom/adapter: query bars: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return err
	}
	rows := result.([]row)

	raw := make(map[Symbol][]Bar)
	for _, r := range rows {
		sym := NormalizeSymbol(r.Symbol)
		raw[sym] = append(raw[sym], Bar{Date: r.Date, Close: r.Close, Volume: r.Volume})
	}
	a.MemoryAdapter = NewMemoryAdapter(a.MemoryAdapter.dialect, raw)
	return a.MemoryAdapter.LoadAll()
}

// SliceToDate overrides MemoryAdapter's to add a read-through cache keyed
// by (adapter key, dialect, date) — repeated calls across sweep workers
// sharing this adapter avoid recomputing the slice.
func (a *SQLAdapter) SliceToDate(d time.Time) Universe {
	cacheKey := fmt.Sprintf("xsmom:slice:%s:%s:%s", a.key, a.MemoryAdapter.dialect.Name, d.Format(time.RFC3339))
	if b, ok := a.slices.Get(cacheKey); ok {
		var cached map[Symbol][]Bar
		if err := json.Unmarshal(b, &cached); err == nil {
			u := make(Universe, len(cached))
			for sym, bars := range cached {
				u[sym] = PriceSeries{Symbol: sym, Bars: bars}
			}
			return u
		}
	}

	u := a.MemoryAdapter.SliceToDate(d)

	toCache := make(map[Symbol][]Bar, len(u))
	for sym, series := range u {
		toCache[sym] = series.Bars
	}
	if b, err := json.Marshal(toCache); err == nil {
		a.slices.Set(cacheKey, b, a.cfg.SliceCacheTTL)
	}
	return u
}

// Close releases the underlying database connection.
func (a *SQLAdapter) Close() error { return a.db.Close() }
