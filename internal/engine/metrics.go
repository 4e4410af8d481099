package engine

import (
	"backsim/types"
	"math"
	"sync"
)

// tradingDaysPerYear is the conventional annualization factor for daily data.
const tradingDaysPerYear = 252.0

// metrics holds the scalar risk/return figures derived from one equity
// curve and trade log. All values are sanitized floats, never NaN or Inf.
type metrics struct {
	TotalReturn      float64
	AnnualizedReturn float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	WinRate          float64
}

// calcMetrics derives all scalar metrics. An equity curve with fewer than
// two points has no returns to measure and yields all zeros.
func calcMetrics(equity []float64, trades []types.Trade) metrics {
	if len(equity) < 2 {
		return metrics{}
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}

	// Done must fire after the field store, not inside the calc helper;
	// otherwise Wait can return before the assignment lands.
	var m metrics
	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		m.TotalReturn, m.AnnualizedReturn = calcReturns(equity)
	}()
	go func() {
		defer wg.Done()
		m.SharpeRatio = calcSharpe(returns)
	}()
	go func() {
		defer wg.Done()
		m.SortinoRatio = calcSortino(returns)
	}()
	go func() {
		defer wg.Done()
		m.MaxDrawdown = calcMaxDrawdown(equity)
	}()
	go func() {
		defer wg.Done()
		m.WinRate = calcWinRate(trades)
	}()
	wg.Wait()

	return m
}

func calcReturns(equity []float64) (total, annualized float64) {
	first, last := equity[0], equity[len(equity)-1]
	if first != 0 {
		total = (last - first) / first * 100
	}
	if first > 0 && len(equity) > 0 {
		annualized = (math.Pow(last/first, tradingDaysPerYear/float64(len(equity))) - 1) * 100
	}
	return sanitize(total), sanitize(annualized)
}

func calcSharpe(returns []float64) float64 {
	sd := stddev(returns)
	if sd <= 0 {
		return 0
	}
	return sanitize(mean(returns) / sd * math.Sqrt(tradingDaysPerYear))
}

// calcSortino is Sharpe with volatility measured over negative returns only.
func calcSortino(returns []float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	sd := stddev(downside)
	if sd <= 0 {
		return 0
	}
	return sanitize(mean(returns) / sd * math.Sqrt(tradingDaysPerYear))
}

func calcMaxDrawdown(equity []float64) float64 {
	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		dd := sanitize((v - peak) / peak)
		if dd < worst {
			worst = dd
		}
	}

	out := sanitize(math.Abs(worst) * 100)
	if out < 0 {
		out = 0
	}
	if out > 100 {
		out = 100
	}
	return out
}

// calcWinRate pairs each symbol's trades off two by two in log order and
// counts the pairs whose net pnl, commissions included, is positive.
func calcWinRate(trades []types.Trade) float64 {
	bySymbol := make(map[string][]types.Trade)
	var order []string
	for _, t := range trades {
		if _, ok := bySymbol[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	pairs, wins := 0, 0
	for _, symbol := range order {
		ts := bySymbol[symbol]
		for i := 0; i+1 < len(ts); i += 2 {
			a, b := ts[i], ts[i+1]

			var buy, sell types.Trade
			if a.Side == types.SideTypeBuy {
				buy, sell = a, b
			} else {
				buy, sell = b, a
			}

			net := sell.Notional().Sub(sell.Commission).
				Sub(buy.Notional().Add(buy.Commission))
			pairs++
			if net.IsPositive() {
				wins++
			}
		}
	}

	if pairs == 0 {
		return 0
	}
	return sanitize(float64(wins) / float64(pairs) * 100)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mu := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// sanitize maps NaN and Inf to 0 so every exported metric is a plain number.
func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
