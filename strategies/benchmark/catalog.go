// Package benchmark provides a small fixed catalog of reference strategies:
// SMA crossover, momentum, mean reversion (Bollinger), buy-and-hold, and
// RSI. Each is a pure function from price history to a signal, so the same
// inputs always reproduce the same run.
package benchmark

import (
	"backsim/internal/engine"
	"fmt"
	"sort"
)

// Lookup resolves a catalog strategy by name with its default parameters.
func Lookup(name string) (engine.Strategy, error) {
	switch name {
	case "sma_crossover":
		return NewSMACrossover(10, 30), nil
	case "momentum":
		return NewMomentum(20, 0.05), nil
	case "mean_reversion":
		return NewMeanReversion(20, 2.0), nil
	case "buy_and_hold":
		return NewBuyAndHold(), nil
	case "rsi":
		return NewRSI(14, 30, 70), nil
	}
	return nil, fmt.Errorf("%q: %w", name, engine.StrategyNotFoundErr)
}

// Names lists the catalog, sorted.
func Names() []string {
	names := []string{"sma_crossover", "momentum", "mean_reversion", "buy_and_hold", "rsi"}
	sort.Strings(names)
	return names
}
