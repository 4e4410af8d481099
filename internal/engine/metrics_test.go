package engine

import (
	"backsim/types"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalcMetricsTooFewPoints(t *testing.T) {
	for _, equity := range [][]float64{nil, {}, {10000}} {
		m := calcMetrics(equity, nil)
		if m != (metrics{}) {
			t.Errorf("equity %v: metrics = %+v, want all zero", equity, m)
		}
	}
}

// Zero-variance returns must yield 0, never NaN or Inf.
func TestCalcMetricsZeroVariance(t *testing.T) {
	equity := []float64{10000, 10000, 10000, 10000}
	m := calcMetrics(equity, nil)

	if m.SharpeRatio != 0 {
		t.Errorf("sharpe = %v, want 0", m.SharpeRatio)
	}
	if m.SortinoRatio != 0 {
		t.Errorf("sortino = %v, want 0", m.SortinoRatio)
	}
	if m.TotalReturn != 0 || m.MaxDrawdown != 0 {
		t.Errorf("total = %v drawdown = %v, want 0/0", m.TotalReturn, m.MaxDrawdown)
	}
}

func TestCalcMetricsKnownCurve(t *testing.T) {
	equity := []float64{100, 110, 99, 120}
	m := calcMetrics(equity, nil)

	if !almostEqual(m.TotalReturn, 20) {
		t.Errorf("total return = %v, want 20", m.TotalReturn)
	}
	// peak 110, trough 99
	if !almostEqual(m.MaxDrawdown, 10) {
		t.Errorf("max drawdown = %v, want 10", m.MaxDrawdown)
	}
	wantAnnualized := (math.Pow(1.2, 252.0/4.0) - 1) * 100
	if !almostEqual(m.AnnualizedReturn, wantAnnualized) {
		t.Errorf("annualized = %v, want %v", m.AnnualizedReturn, wantAnnualized)
	}
	if m.SharpeRatio <= 0 {
		t.Errorf("sharpe = %v, want positive for a rising curve", m.SharpeRatio)
	}
	// The only negative return appears once; a single downside sample has
	// zero spread, so sortino falls back to 0 rather than Inf.
	if m.SortinoRatio != 0 {
		t.Errorf("sortino = %v, want 0 for single downside sample", m.SortinoRatio)
	}
}

func TestCalcSharpeMatchesFormula(t *testing.T) {
	equity := []float64{100, 110, 99, 120}
	returns := []float64{0.1, -0.1, 21.0 / 99.0}

	wantSharpe := mean(returns) / stddev(returns) * math.Sqrt(252)
	m := calcMetrics(equity, nil)
	if !almostEqual(m.SharpeRatio, wantSharpe) {
		t.Errorf("sharpe = %v, want %v", m.SharpeRatio, wantSharpe)
	}
}

func TestCalcSortinoDownsideOnly(t *testing.T) {
	equity := []float64{100, 90, 110, 88, 120}
	returns := []float64{-0.1, 110.0/90.0 - 1, 88.0/110.0 - 1, 120.0/88.0 - 1}
	downside := []float64{-0.1, 88.0/110.0 - 1}

	want := mean(returns) / stddev(downside) * math.Sqrt(252)
	m := calcMetrics(equity, nil)
	if !almostEqual(m.SortinoRatio, want) {
		t.Errorf("sortino = %v, want %v", m.SortinoRatio, want)
	}
	if m.SortinoRatio <= 0 {
		t.Errorf("sortino = %v, want positive", m.SortinoRatio)
	}
}

// Every field must be stored before calcMetrics returns; a lost store in
// the goroutine fan-out would surface here as a spuriously zeroed metric
// on some iteration (and as a race under -race).
func TestCalcMetricsFanOutStoresAllFields(t *testing.T) {
	equity := []float64{100, 110, 99, 120}
	want := calcMetrics(equity, nil)

	for i := 0; i < 200; i++ {
		got := calcMetrics(equity, nil)
		if got != want {
			t.Fatalf("iteration %d: metrics = %+v, want %+v", i, got, want)
		}
		if got.TotalReturn == 0 || got.SharpeRatio == 0 || got.MaxDrawdown == 0 {
			t.Fatalf("iteration %d: lost a metric store: %+v", i, got)
		}
	}
}

// Drawdown stays within [0, 100] for any curve, including total loss.
func TestMaxDrawdownBounds(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"deep decline", []float64{100, 50, 25}, 75},
		{"total loss", []float64{100, 0}, 100},
		{"recovering", []float64{100, 80, 120}, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := calcMetrics(tc.equity, nil)
			if !almostEqual(m.MaxDrawdown, tc.want) {
				t.Errorf("max drawdown = %v, want %v", m.MaxDrawdown, tc.want)
			}
			if m.MaxDrawdown < 0 || m.MaxDrawdown > 100 {
				t.Errorf("max drawdown %v out of [0,100]", m.MaxDrawdown)
			}
		})
	}
}

func TestCalcMetricsNoNaN(t *testing.T) {
	// A curve hitting zero makes raw return math divide by zero.
	equity := []float64{100, 0, 0, 50}
	m := calcMetrics(equity, nil)

	for name, v := range map[string]float64{
		"total":      m.TotalReturn,
		"annualized": m.AnnualizedReturn,
		"sharpe":     m.SharpeRatio,
		"sortino":    m.SortinoRatio,
		"drawdown":   m.MaxDrawdown,
		"winrate":    m.WinRate,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want sanitized", name, v)
		}
	}
}

func TestCalcWinRatePairs(t *testing.T) {
	trades := []types.Trade{
		// AAPL pair: win (net 98)
		mkTrade(0, "AAPL", types.SideTypeBuy, 10, 100, 1),
		mkTrade(1, "AAPL", types.SideTypeSell, 10, 110, 1),
		// GOOG pair: loss (net -52)
		mkTrade(0, "GOOG", types.SideTypeBuy, 5, 100, 1),
		mkTrade(1, "GOOG", types.SideTypeSell, 5, 90, 1),
		// dangling buy is not a pair
		mkTrade(2, "AAPL", types.SideTypeBuy, 10, 100, 1),
	}

	equity := []float64{100, 110}
	m := calcMetrics(equity, trades)
	if !almostEqual(m.WinRate, 50) {
		t.Errorf("win rate = %v, want 50", m.WinRate)
	}
}

func TestCalcWinRateNoPairs(t *testing.T) {
	m := calcMetrics([]float64{100, 110}, []types.Trade{
		mkTrade(0, "AAPL", types.SideTypeBuy, 10, 100, 1),
	})
	if m.WinRate != 0 {
		t.Errorf("win rate = %v, want 0 with no pairs", m.WinRate)
	}
}

// Commission drag: even when the sell price exceeds the buy price, a
// pair's net pnl must be strictly below the naive (sell-buy)*qty.
func TestPairPnLBelowNaive(t *testing.T) {
	buy := mkTrade(0, "AAPL", types.SideTypeBuy, 10, 100, 1)
	sell := mkTrade(1, "AAPL", types.SideTypeSell, 10, 110, 1)

	net := sell.Notional().Sub(sell.Commission).Sub(buy.Notional().Add(buy.Commission))
	naive := sell.Price.Sub(buy.Price).Mul(decimal.NewFromInt(sell.Quantity))

	if !net.LessThan(naive) {
		t.Errorf("net %s not below naive %s", net, naive)
	}
}
