package main

import (
	"backsim/internal/config"
	"backsim/internal/engine"
	"backsim/internal/repository"
	"backsim/internal/util"
	"backsim/strategies/benchmark"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
)

func main() {
	configPath := flag.String("config", "backsim.yaml", "path to YAML configuration")
	optimize := flag.Bool("optimize", false, "run a parameter grid sweep instead of a single backtest")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, cleanup, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	strat, err := benchmark.Lookup(cfg.Backtest.Strategy)
	if err != nil {
		log.Fatal(err)
	}

	eng := engine.NewEngine(provider, logger)
	req := engine.RunRequest{
		Strategy:    strat,
		Symbols:     cfg.Backtest.Symbols,
		InitialCash: decimal.NewFromFloat(cfg.Backtest.InitialCash),
	}

	if *optimize {
		runSweep(ctx, cfg, eng, req, logger)
		return
	}

	result, err := eng.Run(ctx, req)
	if err != nil {
		log.Fatal(err)
	}
	engine.PrintReport(result)

	if cfg.Report.TradesCSV != "" {
		if err := engine.WriteTradesCSVFile(cfg.Report.TradesCSV, result.Trades); err != nil {
			log.Fatal(err)
		}
		logger.Info("wrote trades", "path", cfg.Report.TradesCSV, "count", len(result.Trades))
	}
}

func runSweep(ctx context.Context, cfg *config.Config, eng *engine.Engine, req engine.RunRequest, logger *slog.Logger) {
	opt := engine.NewGridOptimizer(eng, engine.OptimizerConfig{
		Workers:      cfg.Optimize.Workers,
		ShowProgress: true,
	}, logger)

	sweep, err := opt.Optimize(ctx, req, cfg.Optimize.Ranges, cfg.Optimize.Metric)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n===== Optimization Result =====")
	fmt.Printf("Sweep:                 %s\n", sweep.SweepID)
	fmt.Printf("Metric:                %s\n", sweep.Metric)
	fmt.Printf("Combinations:          %d\n", sweep.TotalCombinations)
	fmt.Printf("Best Value:            %.4f\n", sweep.BestMetricValue)
	fmt.Printf("Best Params:           %s\n", formatParams(sweep.BestParams))
	fmt.Println("===============================")

	if sweep.BestResult != nil {
		engine.PrintReport(sweep.BestResult)
	}
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, params[name]))
	}
	return strings.Join(parts, " ")
}

func newProvider(ctx context.Context, cfg *config.Config) (engine.DataProvider, func(), error) {
	if cfg.Storage.DatabaseURL != "" {
		db, err := repository.NewDatabase(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return repository.NewCSVStore(cfg.Storage.CSVDir), func() {}, nil
}
