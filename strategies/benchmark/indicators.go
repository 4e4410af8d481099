package benchmark

import (
	"backsim/types"
	"math"
)

func closes(history []types.Candle) []float64 {
	out := make([]float64, len(history))
	for i, c := range history {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// sma averages the last n values. Zero if there are fewer than n.
func sma(xs []float64, n int) float64 {
	if n <= 0 || len(xs) < n {
		return 0
	}
	var sum float64
	for _, x := range xs[len(xs)-n:] {
		sum += x
	}
	return sum / float64(n)
}

// stddevLast is the population standard deviation of the last n values.
func stddevLast(xs []float64, n int) float64 {
	if n <= 0 || len(xs) < n {
		return 0
	}
	window := xs[len(xs)-n:]
	mu := sma(xs, n)
	var sum float64
	for _, x := range window {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// rsi is Wilder's relative strength index over the trailing period.
// Returns 50 (neutral) when there is not enough history.
func rsi(xs []float64, period int) float64 {
	if period <= 0 || len(xs) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(xs) - period; i < len(xs); i++ {
		delta := xs[i] - xs[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
