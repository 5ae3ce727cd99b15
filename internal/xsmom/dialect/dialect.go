// Package dialect carries the market-specific constants that keep the
// scoring and adapter layers market-agnostic, per the value-object
// parametrization called for instead of inheritance.
package dialect

// Dialect is an immutable value describing how a market's price history
// should be windowed, annualized and weighted. Construct once, pass by
// value everywhere.
type Dialect struct {
	Name string

	// MinDays is the minimum number of bars a symbol's sliced series must
	// carry before it is eligible for scoring.
	MinDays int

	// AnnualizationFactor is trading days per year for this market (252
	// for equities, 365 for always-on perpetual futures).
	AnnualizationFactor float64

	// WindowLong/Mid/Short are the lookback windows (in bars) used by
	// both Method B and Method C. SkipDays excludes the most recent bars
	// from Method B's window end (avoids reacting to the last print);
	// Method C's windows end at the latest bar.
	WindowLong  int
	WindowMid   int
	WindowShort int
	SkipDays    int

	// WeightsB / WeightsC are the fixed combination weights for Method B
	// (risk-adjusted z-score) and Method C (Clenow regression), in
	// long/mid/short order. Identical across dialects per spec.
	WeightsB [3]float64
	WeightsC [3]float64
}

// Equities is the equity-style dialect: 70-bar minimum, 252 trading
// days/year, month/quarter/year analogue windows of the crypto dialect's
// day windows.
func Equities() Dialect {
	return Dialect{
		Name:                "equities",
		MinDays:             70,
		AnnualizationFactor: 252,
		WindowLong:          252,
		WindowMid:           63,
		WindowShort:         21,
		SkipDays:            1,
		WeightsB:            [3]float64{0.40, 0.35, 0.25},
		WeightsC:            [3]float64{0.50, 0.30, 0.20},
	}
}

// Perpetuals is the perpetual-futures dialect, ported verbatim from the
// original CRYPTO_RS_CONFIG constants (7d/3d/1d windows, 365-day
// annualization, 15-bar minimum).
func Perpetuals() Dialect {
	return Dialect{
		Name:                "perpetuals",
		MinDays:             15,
		AnnualizationFactor: 365,
		WindowLong:          7,
		WindowMid:           3,
		WindowShort:         1,
		SkipDays:            1,
		WeightsB:            [3]float64{0.40, 0.35, 0.25},
		WeightsC:            [3]float64{0.50, 0.30, 0.20},
	}
}

// ByMarket resolves a dialect by its configuration string.
func ByMarket(market string) (Dialect, bool) {
	switch market {
	case "equities":
		return Equities(), true
	case "perpetuals":
		return Perpetuals(), true
	default:
		return Dialect{}, false
	}
}
