package engine

import (
	"backsim/types"
	"fmt"
	"strings"
)

// triggerReason builds a human-readable explanation for a trade from
// indicator keywords in the strategy's name and source plus the last two
// closing prices. It is a best-effort classifier with no correctness
// guarantee; nothing in the simulation decides anything based on it.
func triggerReason(strat Strategy, history []types.Candle, signal types.Direction) string {
	text := strings.ToLower(strat.Name() + " " + strat.Source())

	indicator := "Close"
	switch {
	case strings.Contains(text, "sma") || strings.Contains(text, "moving average") || strings.Contains(text, "crossover"):
		indicator = "SMA"
	case strings.Contains(text, "rsi"):
		indicator = "RSI"
	case strings.Contains(text, "macd"):
		indicator = "MACD"
	}

	if len(history) < 2 {
		return fmt.Sprintf("%s signal %s", indicator, signal)
	}

	prev := history[len(history)-2].Close
	last := history[len(history)-1].Close
	trend := "flat"
	switch {
	case last.GreaterThan(prev):
		trend = "rising"
	case last.LessThan(prev):
		trend = "falling"
	}
	return fmt.Sprintf("%s signal %s, close %s (%s -> %s)", indicator, signal, trend, prev, last)
}
