// Package cliutil holds small helpers shared across the cmd/xsmom
// subcommands: adapter construction and market/dialect resolution.
package cliutil

import (
	"fmt"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
)

// ResolveDialect maps a market name ("equities"/"perpetuals") to its
// MarketDialect.
func ResolveDialect(market string) (dialect.Dialect, error) {
	d, ok := dialect.ByMarket(market)
	if !ok {
		return dialect.Dialect{}, fmt.Errorf("xsmom: unknown market %q (want equities or perpetuals)", market)
	}
	return d, nil
}

// BuildSQLAdapter constructs a SQLAdapter against the given DSN, reusing
// the environment's REDIS_ADDR for the slice-cache and a conservative
// default rate limit.
func BuildSQLAdapter(market, dsn, table string) (*adapter.SQLAdapter, error) {
	d, err := ResolveDialect(market)
	if err != nil {
		return nil, err
	}
	cfg := adapter.DefaultSQLConfig()
	cfg.DSN = dsn
	if table != "" {
		cfg.Table = table
	}
	return adapter.NewSQLAdapter(d, cfg, market)
}
