package engine

import (
	"backsim/types"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var (
	UnknownMetricErr         = errors.New("unknown optimization metric")
	NoTunableParamsErr       = errors.New("no tunable parameters found in strategy source")
	AllCombinationsFailedErr = errors.New("every parameter combination failed")
)

// higherIsBetter maps each selectable metric to its direction. Missing
// entries are rejected up front.
var higherIsBetter = map[string]bool{
	"sharpe_ratio":      true,
	"sortino_ratio":     true,
	"annualized_return": true,
	"total_return":      true,
	"win_rate":          true,
	"max_drawdown":      false,
}

// GridOptimizer sweeps the Cartesian product of candidate parameter values
// and re-runs a full backtest per combination. Combinations are mutually
// independent, each one owns its own portfolio, so they run on a bounded
// worker pool. The provider behind the engine must tolerate concurrent
// reads.
type GridOptimizer struct {
	engine       *Engine
	logger       *slog.Logger
	workers      int
	showProgress bool
}

type OptimizerConfig struct {
	// Workers bounds the concurrent combinations. Zero or negative means 1.
	Workers      int
	ShowProgress bool
}

func NewGridOptimizer(engine *Engine, cfg OptimizerConfig, logger *slog.Logger) *GridOptimizer {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &GridOptimizer{
		engine:       engine,
		logger:       logger,
		workers:      workers,
		showProgress: cfg.ShowProgress,
	}
}

// Optimize runs the sweep and picks the best combination under the given
// metric. Ranges may be nil, in which case candidates are auto-extracted
// from the strategy source. A combination whose backtest fails stays in
// the result list with its error but is excluded from selection; the sweep
// itself fails only when every combination does.
//
// Cancellation is cooperative at combination granularity: combinations
// already running finish, queued ones are recorded as dropped.
func (o *GridOptimizer) Optimize(ctx context.Context, req RunRequest, ranges map[string][]float64, metric string) (*types.OptimizationResult, error) {
	if req.Strategy == nil {
		return nil, StrategyNotFoundErr
	}
	if _, ok := higherIsBetter[metric]; !ok {
		return nil, fmt.Errorf("%w: %q", UnknownMetricErr, metric)
	}

	if len(ranges) == 0 {
		ranges = extractParams(req.Strategy.Source())
	}
	combos := cartesian(ranges)
	if len(combos) == 0 {
		return nil, NoTunableParamsErr
	}

	o.logger.Info("starting parameter sweep",
		"strategy", req.Strategy.Name(),
		"metric", metric,
		"combinations", len(combos),
		"workers", o.workers)

	var bar *progressbar.ProgressBar
	if o.showProgress {
		bar = sweepProgressBar(len(combos))
	}

	results := make([]types.CombinationResult, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, combo := range combos {
		i, combo := i, combo
		g.Go(func() error {
			defer func() {
				if bar != nil {
					bar.Add(1)
				}
			}()

			if err := gctx.Err(); err != nil {
				results[i] = types.CombinationResult{Params: combo, Error: "dropped: " + err.Error()}
				return nil
			}

			strat, err := req.Strategy.WithParams(combo)
			if err != nil {
				results[i] = types.CombinationResult{Params: combo, Error: err.Error()}
				return nil
			}

			run := req
			run.Strategy = strat
			res, err := o.engine.Run(gctx, run)
			if err != nil {
				o.logger.Warn("combination failed", "params", combo, "error", err)
				results[i] = types.CombinationResult{Params: combo, Error: err.Error()}
				return nil
			}
			results[i] = types.CombinationResult{Params: combo, Result: res}
			return nil
		})
	}
	g.Wait()

	best := -1
	bestValue := 0.0
	for i, r := range results {
		if r.Result == nil {
			continue
		}
		v := metricValue(r.Result, metric)
		if best == -1 || better(v, bestValue, higherIsBetter[metric]) {
			best = i
			bestValue = v
		}
	}
	if best == -1 {
		return nil, AllCombinationsFailedErr
	}

	return &types.OptimizationResult{
		SweepID:           uuid.NewString(),
		Metric:            metric,
		BestParams:        results[best].Params,
		BestMetricValue:   bestValue,
		BestResult:        results[best].Result,
		TotalCombinations: len(combos),
		Results:           results,
	}, nil
}

func better(candidate, incumbent float64, higher bool) bool {
	if higher {
		return candidate > incumbent
	}
	return candidate < incumbent
}

func metricValue(r *types.BacktestResult, metric string) float64 {
	switch metric {
	case "sharpe_ratio":
		return r.SharpeRatio
	case "sortino_ratio":
		return r.SortinoRatio
	case "annualized_return":
		return r.AnnualizedReturn
	case "total_return":
		return r.TotalReturn
	case "win_rate":
		return r.WinRate
	case "max_drawdown":
		return r.MaxDrawdown
	}
	return 0
}

func sweepProgressBar(combinations int) *progressbar.ProgressBar {
	return progressbar.NewOptions(combinations,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Sweeping parameter grid..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
