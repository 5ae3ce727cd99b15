package optimizer

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/xsmom/internal/xsmom/adapter"
	"github.com/sawpanic/xsmom/internal/xsmom/config"
	"github.com/sawpanic/xsmom/internal/xsmom/dialect"
	"github.com/sawpanic/xsmom/internal/xsmom/engine"
	"github.com/sawpanic/xsmom/internal/xsmom/scoring"
)

// WalkForwardRound is one train/test iteration's result.
type WalkForwardRound struct {
	RoundNum         int
	TrainStart       time.Time
	TrainEnd         time.Time
	TestStart        time.Time
	TestEnd          time.Time
	BestConfigLabel  string
	BestParams       config.BacktestConfig
	InSampleSharpe   float64
	InSampleCAGR     float64
	OutSampleSharpe  float64
	OutSampleCAGR    float64
	OutSampleMaxDD   float64
}

// WalkForwardResult summarizes every round plus the recommended,
// most-consistent parameter set.
type WalkForwardResult struct {
	Rounds               []WalkForwardRound
	AvgInSampleSharpe    float64
	AvgOutSampleSharpe   float64
	AvgOutSampleCAGR     float64
	OverfitRatio         float64 // 1 - (out/in); closer to 0 is better
	RecommendedConfig    *config.BacktestConfig
	ParamConsistency     float64
}

// WalkForward runs rolling train/test windows: on each window it sweeps
// the grid over the train span, picks the top robustness candidate, then
// backtests that candidate's parameters over the following test span.
func WalkForward(base config.BacktestConfig, grid config.SweepGrid, d dialect.Dialect, a adapter.Adapter, trainMonths, testMonths, stepMonths int) (WalkForwardResult, error) {
	if err := a.LoadAll(); err != nil {
		return WalkForwardResult{}, err
	}
	dataStart, dataEnd, ok := a.DateRange()
	if !ok {
		log.Error().Msg("optimizer: no data available for walk-forward")
		return WalkForwardResult{OverfitRatio: 1.0}, nil
	}

	var rounds []WalkForwardRound
	roundNum := 0
	windowStart := dataStart

	for {
		trainEnd := windowStart.AddDate(0, trainMonths, 0).AddDate(0, 0, -1)
		testStart := trainEnd.AddDate(0, 0, 1)
		testEnd := testStart.AddDate(0, testMonths, 0).AddDate(0, 0, -1)

		if testEnd.After(dataEnd) {
			break
		}
		roundNum++

		log.Info().
			Int("round", roundNum).
			Time("train_start", windowStart).Time("train_end", trainEnd).
			Time("test_start", testStart).Time("test_end", testEnd).
			Msg("optimizer: walk-forward round")

		trainCfg := base
		trainCfg.StartDate = &windowStart
		trainCfg.EndDate = &trainEnd

		candidates, err := RunSweep(trainCfg, grid, d, a)
		if err != nil {
			return WalkForwardResult{}, err
		}
		if len(candidates) == 0 {
			log.Warn().Int("round", roundNum).Msg("optimizer: train window produced no results, skipping")
			windowStart = windowStart.AddDate(0, stepMonths, 0)
			continue
		}

		robust := RankWithRobustness(candidates, 10)
		best := robust[0]

		testCfg := best.Config
		testStartCopy, testEndCopy := testStart, testEnd
		testCfg.StartDate = &testStartCopy
		testCfg.EndDate = &testEndCopy

		scoreFn := scoring.Resolve(testCfg.ScoreMethod, d)
		testResult := engine.New(testCfg, a, scoreFn).Run()

		rounds = append(rounds, WalkForwardRound{
			RoundNum:        roundNum,
			TrainStart:      windowStart,
			TrainEnd:        trainEnd,
			TestStart:       testStart,
			TestEnd:         testEnd,
			BestConfigLabel: testCfg.Label(),
			BestParams:      testCfg,
			InSampleSharpe:  best.Metrics.SharpeRatio,
			InSampleCAGR:    best.Metrics.CAGR,
			OutSampleSharpe: testResult.Metrics.SharpeRatio,
			OutSampleCAGR:   testResult.Metrics.CAGR,
			OutSampleMaxDD:  testResult.Metrics.MaxDrawdown,
		})

		windowStart = windowStart.AddDate(0, stepMonths, 0)
	}

	return summarizeWalkForward(rounds), nil
}

func summarizeWalkForward(rounds []WalkForwardRound) WalkForwardResult {
	if len(rounds) == 0 {
		return WalkForwardResult{OverfitRatio: 1.0}
	}

	var sumIn, sumOut, sumOutCAGR float64
	for _, r := range rounds {
		sumIn += r.InSampleSharpe
		sumOut += r.OutSampleSharpe
		sumOutCAGR += r.OutSampleCAGR
	}
	n := float64(len(rounds))
	avgIn, avgOut, avgOutCAGR := sumIn/n, sumOut/n, sumOutCAGR/n

	overfit := 1.0
	if avgIn > 0 {
		overfit = 1 - avgOut/avgIn
	}

	consistency := paramConsistency(rounds)
	recommended := mostCommonParams(rounds)

	return WalkForwardResult{
		Rounds:             rounds,
		AvgInSampleSharpe:  avgIn,
		AvgOutSampleSharpe: avgOut,
		AvgOutSampleCAGR:   avgOutCAGR,
		OverfitRatio:       overfit,
		RecommendedConfig:  recommended,
		ParamConsistency:   consistency,
	}
}

// paramConsistency measures, across rounds, what fraction of the four
// tunable dimensions agree with that dimension's most common value.
func paramConsistency(rounds []WalkForwardRound) float64 {
	if len(rounds) <= 1 {
		return 1.0
	}

	topNs := make(map[int]int)
	methods := make(map[scoring.Method]int)
	freqs := make(map[string]int)
	buffers := make(map[int]int)

	for _, r := range rounds {
		topNs[r.BestParams.TopN]++
		methods[r.BestParams.ScoreMethod]++
		freqs[r.BestParams.RebalanceFreq]++
		buffers[r.BestParams.SellBuffer]++
	}

	total := len(rounds) * 4
	matches := maxCount(topNs) + maxCountMethod(methods) + maxCountStr(freqs) + maxCount(buffers)
	return float64(matches) / float64(total)
}

func mostCommonParams(rounds []WalkForwardRound) *config.BacktestConfig {
	if len(rounds) == 0 {
		return nil
	}

	topNs := make(map[int]int)
	methods := make(map[scoring.Method]int)
	freqs := make(map[string]int)
	buffers := make(map[int]int)

	for _, r := range rounds {
		topNs[r.BestParams.TopN]++
		methods[r.BestParams.ScoreMethod]++
		freqs[r.BestParams.RebalanceFreq]++
		buffers[r.BestParams.SellBuffer]++
	}

	base := rounds[len(rounds)-1].BestParams
	base.TopN = modeInt(topNs)
	base.ScoreMethod = modeMethod(methods)
	base.RebalanceFreq = modeStr(freqs)
	base.SellBuffer = modeInt(buffers)
	base.StartDate = nil
	base.EndDate = nil
	return &base
}

func maxCount(m map[int]int) int {
	best := 0
	for _, c := range m {
		if c > best {
			best = c
		}
	}
	return best
}

func maxCountStr(m map[string]int) int {
	best := 0
	for _, c := range m {
		if c > best {
			best = c
		}
	}
	return best
}

func maxCountMethod(m map[scoring.Method]int) int {
	best := 0
	for _, c := range m {
		if c > best {
			best = c
		}
	}
	return best
}

func modeInt(m map[int]int) int {
	bestKey, bestCount := 0, -1
	for k, c := range m {
		if c > bestCount {
			bestKey, bestCount = k, c
		}
	}
	return bestKey
}

func modeStr(m map[string]int) string {
	bestKey, bestCount := "", -1
	for k, c := range m {
		if c > bestCount {
			bestKey, bestCount = k, c
		}
	}
	return bestKey
}

func modeMethod(m map[scoring.Method]int) scoring.Method {
	bestKey, bestCount := scoring.Method(""), -1
	for k, c := range m {
		if c > bestCount {
			bestKey, bestCount = k, c
		}
	}
	return bestKey
}
