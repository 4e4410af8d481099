package benchmark

import (
	"backsim/internal/engine"
	"backsim/types"
	"context"
	"errors"
	"fmt"
	"math"
)

var InvalidParamsErr = errors.New("invalid strategy parameters")

// SMACrossover buys when the fast moving average crosses above the slow
// one and sells on the opposite cross.
type SMACrossover struct {
	fast int
	slow int
}

func NewSMACrossover(fast, slow int) *SMACrossover {
	return &SMACrossover{fast: fast, slow: slow}
}

func (s *SMACrossover) Name() string { return "sma_crossover" }

func (s *SMACrossover) Source() string {
	return fmt.Sprintf("fast = %d\nslow = %d\n", s.fast, s.slow)
}

func (s *SMACrossover) Signal(_ context.Context, history []types.Candle) (types.Direction, error) {
	xs := closes(history)
	if len(xs) <= s.slow {
		return types.DirectionHold, nil
	}

	prev := xs[:len(xs)-1]
	fastNow, slowNow := sma(xs, s.fast), sma(xs, s.slow)
	fastPrev, slowPrev := sma(prev, s.fast), sma(prev, s.slow)

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		return types.DirectionBuy, nil
	case fastPrev >= slowPrev && fastNow < slowNow:
		return types.DirectionSell, nil
	}
	return types.DirectionHold, nil
}

func (s *SMACrossover) WithParams(params map[string]float64) (engine.Strategy, error) {
	next := *s
	if v, ok := params["fast"]; ok {
		next.fast = roundPeriod(v)
	}
	if v, ok := params["slow"]; ok {
		next.slow = roundPeriod(v)
	}
	if next.fast < 1 || next.slow <= next.fast {
		return nil, fmt.Errorf("%w: fast=%d slow=%d", InvalidParamsErr, next.fast, next.slow)
	}
	return &next, nil
}

// Momentum compares the trailing return over a lookback window against a
// symmetric threshold.
type Momentum struct {
	lookback  int
	threshold float64
}

func NewMomentum(lookback int, threshold float64) *Momentum {
	return &Momentum{lookback: lookback, threshold: threshold}
}

func (s *Momentum) Name() string { return "momentum" }

func (s *Momentum) Source() string {
	return fmt.Sprintf("lookback = %d\nthreshold = %g\n", s.lookback, s.threshold)
}

func (s *Momentum) Signal(_ context.Context, history []types.Candle) (types.Direction, error) {
	xs := closes(history)
	if len(xs) <= s.lookback {
		return types.DirectionHold, nil
	}

	base := xs[len(xs)-1-s.lookback]
	if base == 0 {
		return types.DirectionHold, nil
	}
	ret := (xs[len(xs)-1] - base) / base
	switch {
	case ret > s.threshold:
		return types.DirectionBuy, nil
	case ret < -s.threshold:
		return types.DirectionSell, nil
	}
	return types.DirectionHold, nil
}

func (s *Momentum) WithParams(params map[string]float64) (engine.Strategy, error) {
	next := *s
	if v, ok := params["lookback"]; ok {
		next.lookback = roundPeriod(v)
	}
	if v, ok := params["threshold"]; ok {
		next.threshold = v
	}
	if next.lookback < 1 || next.threshold <= 0 {
		return nil, fmt.Errorf("%w: lookback=%d threshold=%g", InvalidParamsErr, next.lookback, next.threshold)
	}
	return &next, nil
}

// MeanReversion trades Bollinger band touches: buy below the lower band,
// sell above the upper.
type MeanReversion struct {
	window int
	numStd float64
}

func NewMeanReversion(window int, numStd float64) *MeanReversion {
	return &MeanReversion{window: window, numStd: numStd}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Source() string {
	return fmt.Sprintf("window = %d\nnum_std = %g\n", s.window, s.numStd)
}

func (s *MeanReversion) Signal(_ context.Context, history []types.Candle) (types.Direction, error) {
	xs := closes(history)
	if len(xs) < s.window {
		return types.DirectionHold, nil
	}

	mid := sma(xs, s.window)
	sd := stddevLast(xs, s.window)
	if sd == 0 {
		return types.DirectionHold, nil
	}

	last := xs[len(xs)-1]
	switch {
	case last < mid-s.numStd*sd:
		return types.DirectionBuy, nil
	case last > mid+s.numStd*sd:
		return types.DirectionSell, nil
	}
	return types.DirectionHold, nil
}

func (s *MeanReversion) WithParams(params map[string]float64) (engine.Strategy, error) {
	next := *s
	if v, ok := params["window"]; ok {
		next.window = roundPeriod(v)
	}
	if v, ok := params["num_std"]; ok {
		next.numStd = v
	}
	if next.window < 2 || next.numStd <= 0 {
		return nil, fmt.Errorf("%w: window=%d num_std=%g", InvalidParamsErr, next.window, next.numStd)
	}
	return &next, nil
}

// BuyAndHold emits a standing buy signal. Once the first buy has consumed
// the cash, later signals size to zero shares and become no-ops, so the
// strategy stays stateless and runs stay reproducible.
type BuyAndHold struct{}

func NewBuyAndHold() *BuyAndHold { return &BuyAndHold{} }

func (s *BuyAndHold) Name() string   { return "buy_and_hold" }
func (s *BuyAndHold) Source() string { return "" }

func (s *BuyAndHold) Signal(_ context.Context, history []types.Candle) (types.Direction, error) {
	if len(history) == 0 {
		return types.DirectionHold, nil
	}
	return types.DirectionBuy, nil
}

func (s *BuyAndHold) WithParams(map[string]float64) (engine.Strategy, error) {
	return &BuyAndHold{}, nil
}

// RSI buys oversold and sells overbought readings.
type RSI struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSI(period int, oversold, overbought float64) *RSI {
	return &RSI{period: period, oversold: oversold, overbought: overbought}
}

func (s *RSI) Name() string { return "rsi" }

func (s *RSI) Source() string {
	return fmt.Sprintf("period = %d\noversold = %g\noverbought = %g\n", s.period, s.oversold, s.overbought)
}

func (s *RSI) Signal(_ context.Context, history []types.Candle) (types.Direction, error) {
	xs := closes(history)
	if len(xs) <= s.period {
		return types.DirectionHold, nil
	}

	value := rsi(xs, s.period)
	switch {
	case value < s.oversold:
		return types.DirectionBuy, nil
	case value > s.overbought:
		return types.DirectionSell, nil
	}
	return types.DirectionHold, nil
}

func (s *RSI) WithParams(params map[string]float64) (engine.Strategy, error) {
	next := *s
	if v, ok := params["period"]; ok {
		next.period = roundPeriod(v)
	}
	if v, ok := params["oversold"]; ok {
		next.oversold = v
	}
	if v, ok := params["overbought"]; ok {
		next.overbought = v
	}
	if next.period < 1 || next.oversold >= next.overbought {
		return nil, fmt.Errorf("%w: period=%d oversold=%g overbought=%g",
			InvalidParamsErr, next.period, next.oversold, next.overbought)
	}
	return &next, nil
}

func roundPeriod(v float64) int {
	return int(math.Round(v))
}
