package factorstudy

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
)

// Results is the complete study output for a single factor.
type Results struct {
	FactorName        string
	ICResults         map[int]ICResult
	EventResults      []EventStudyResult
	NComputationDates int
	NSymbols          int
	Elapsed           time.Duration
}

// Runner orchestrates Track 1 (IC) and Track 2 (event study) across a
// set of registered factors, sharing one set of computation dates and
// forward-return matrices across all of them.
type Runner struct {
	cfg            config.FactorStudyConfig
	adapter        adapter.Adapter
	factors        []Factor
	sweepOverrides map[string][]SignalDefinition
}

// NewRunner builds an orchestrator for the given config and data adapter.
func NewRunner(cfg config.FactorStudyConfig, a adapter.Adapter) *Runner {
	return &Runner{cfg: cfg, adapter: a, sweepOverrides: make(map[string][]SignalDefinition)}
}

// AddFactor registers a factor to be studied.
func (r *Runner) AddFactor(f Factor) { r.factors = append(r.factors, f) }

// SetSweep overrides the default signal sweep for a named factor.
func (r *Runner) SetSweep(factorName string, defs []SignalDefinition) {
	r.sweepOverrides[factorName] = defs
}

// Run executes the full study and returns one Results per registered
// factor.
func (r *Runner) Run() ([]Results, error) {
	if len(r.factors) == 0 {
		log.Warn().Msg("factor study: no factors registered")
		return nil, nil
	}

	if err := r.adapter.LoadAll(); err != nil {
		return nil, err
	}
	allDates := r.adapter.TradingDates()
	log.Info().Int("dates", len(allDates)).Msg("factor study: data loaded")

	if r.cfg.StartDate != nil {
		allDates = filterDates(allDates, func(d time.Time) bool { return !d.Before(*r.cfg.StartDate) })
	}
	if r.cfg.EndDate != nil {
		allDates = filterDates(allDates, func(d time.Time) bool { return !d.After(*r.cfg.EndDate) })
	}

	freq := config.FreqDays[r.cfg.ComputationFreq]
	if freq <= 0 {
		freq = 5
	}
	computationDates := strideDates(allDates, freq)
	log.Info().Str("freq", r.cfg.ComputationFreq).Int("computation_dates", len(computationDates)).Msg("factor study: sampling")

	full := fullUniverse(r.adapter, allDates)

	returnMatrices := BuildReturnMatrices(full, computationDates, r.cfg.ForwardHorizons)

	results := make([]Results, 0, len(r.factors))
	for _, factor := range r.factors {
		start := time.Now()
		name := factor.Meta().Name
		log.Info().Str("factor", name).Msg("factor study: starting")

		res := r.runSingleFactor(factor, computationDates, returnMatrices)
		res.Elapsed = time.Since(start)
		results = append(results, res)

		log.Info().
			Str("factor", name).
			Int("ic_horizons", len(res.ICResults)).
			Int("event_results", len(res.EventResults)).
			Dur("elapsed", res.Elapsed).
			Msg("factor study: factor complete")
	}

	return results, nil
}

func (r *Runner) runSingleFactor(factor Factor, computationDates []time.Time, returnMatrices map[int]ReturnMatrix) Results {
	name := factor.Meta().Name
	res := Results{FactorName: name, NComputationDates: len(computationDates)}

	history := make(ScoreHistory)
	symbolsSeen := make(map[string]struct{})

	for _, d := range computationDates {
		sliced := r.adapter.SliceToDate(d)
		if len(sliced) == 0 {
			continue
		}
		scores := factor.Compute(sliced, d)
		for sym, score := range scores {
			history[sym] = append(history[sym], ScorePoint{Date: d, Score: score})
			symbolsSeen[sym] = struct{}{}
		}
	}
	res.NSymbols = len(symbolsSeen)

	if len(history) == 0 {
		return res
	}

	res.ICResults = AnalyzeIC(history, returnMatrices, computationDates, r.cfg.NQuantiles)

	sweep := r.sweepOverrides[name]
	if sweep == nil {
		sweep = defaultSweep(name, factor.Meta())
	}
	for _, def := range sweep {
		events := DetectSignals(history, def)
		if len(events) == 0 {
			continue
		}
		res.EventResults = append(res.EventResults, RunEventStudy(name+":"+def.Label(), events, returnMatrices)...)
	}

	return res
}

// defaultSweep picks one representative signal per factor, scaled to its
// meta score range, when the caller hasn't supplied an explicit sweep.
func defaultSweep(name string, meta FactorMeta) []SignalDefinition {
	switch name {
	case "RVOL_Sustained":
		return []SignalDefinition{{Type: Sustained, Threshold: 2.0, SustainedN: 3}}
	case "RVOL":
		return []SignalDefinition{{Type: Threshold, Threshold: 2.0}}
	case "DV_Acceleration":
		return []SignalDefinition{{Type: Threshold, Threshold: 1.5}}
	default:
		// rank-style factors (0-99): crossing 80% of the range high (top quintile)
		upper := meta.ScoreRangeHigh
		return []SignalDefinition{{Type: CrossUp, Threshold: upper * 0.8}}
	}
}

func filterDates(dates []time.Time, keep func(time.Time) bool) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func strideDates(dates []time.Time, freq int) []time.Time {
	if freq <= 1 {
		return dates
	}
	out := make([]time.Time, 0, len(dates)/freq+1)
	for i := 0; i < len(dates); i += freq {
		out = append(out, dates[i])
	}
	return out
}

// fullUniverse assembles the unsliced per-symbol series for forward-return
// construction. This is intentionally the full dataset, never the
// no-look-ahead-gated slice: the return matrix feeds evaluation, not
// trading decisions.
func fullUniverse(a adapter.Adapter, allDates []time.Time) map[adapter.Symbol]adapter.PriceSeries {
	if len(allDates) == 0 {
		return nil
	}
	return a.SliceToDate(allDates[len(allDates)-1])
}
