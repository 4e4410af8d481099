package benchmark

import (
	"backsim/internal/engine"
	"backsim/types"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func series(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		out[i] = types.Candle{
			Symbol:    "TEST",
			Open:      d,
			High:      d,
			Low:       d,
			Close:     d,
			Volume:    decimal.NewFromInt(1),
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		}
	}
	return out
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		strat, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
			continue
		}
		if strat.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, strat.Name())
		}
	}

	if _, err := Lookup("nope"); !errors.Is(err, engine.StrategyNotFoundErr) {
		t.Errorf("err = %v, want StrategyNotFoundErr", err)
	}
}

func TestSMACrossoverSignals(t *testing.T) {
	strat := NewSMACrossover(2, 3)
	ctx := context.Background()

	tests := []struct {
		name   string
		closes []float64
		want   types.Direction
	}{
		{"not enough history", []float64{10, 10, 10}, types.DirectionHold},
		{"fast crosses above slow", []float64{10, 10, 10, 14}, types.DirectionBuy},
		{"fast crosses below slow", []float64{10, 10, 10, 14, 2}, types.DirectionSell},
		{"no cross", []float64{10, 10, 10, 10}, types.DirectionHold},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := strat.Signal(ctx, series(tc.closes...))
			if err != nil {
				t.Fatalf("Signal: %v", err)
			}
			if got != tc.want {
				t.Errorf("signal = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMomentumSignals(t *testing.T) {
	strat := NewMomentum(2, 0.05)
	ctx := context.Background()

	tests := []struct {
		name   string
		closes []float64
		want   types.Direction
	}{
		{"strong rise", []float64{100, 100, 120}, types.DirectionBuy},
		{"strong fall", []float64{100, 100, 80}, types.DirectionSell},
		{"inside threshold", []float64{100, 100, 102}, types.DirectionHold},
		{"short history", []float64{100, 120}, types.DirectionHold},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := strat.Signal(ctx, series(tc.closes...))
			if err != nil {
				t.Fatalf("Signal: %v", err)
			}
			if got != tc.want {
				t.Errorf("signal = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMeanReversionSignals(t *testing.T) {
	strat := NewMeanReversion(3, 1)
	ctx := context.Background()

	if got, _ := strat.Signal(ctx, series(10, 10, 10)); got != types.DirectionHold {
		t.Errorf("zero variance should hold, got %v", got)
	}
	if got, _ := strat.Signal(ctx, series(10, 20, 2)); got != types.DirectionBuy {
		t.Errorf("close far below lower band should buy, got %v", got)
	}
	if got, _ := strat.Signal(ctx, series(10, 2, 20)); got != types.DirectionSell {
		t.Errorf("close far above upper band should sell, got %v", got)
	}
}

func TestBuyAndHoldAlwaysBuys(t *testing.T) {
	strat := NewBuyAndHold()

	for days := 1; days <= 3; days++ {
		closes := make([]float64, days)
		for i := range closes {
			closes[i] = 100
		}
		got, err := strat.Signal(context.Background(), series(closes...))
		if err != nil {
			t.Fatalf("Signal: %v", err)
		}
		if got != types.DirectionBuy {
			t.Errorf("day %d signal = %v, want BUY", days, got)
		}
	}
}

func TestRSISignals(t *testing.T) {
	strat := NewRSI(3, 30, 70)
	ctx := context.Background()

	if got, _ := strat.Signal(ctx, series(100, 101, 102, 103)); got != types.DirectionSell {
		t.Errorf("straight rise is overbought, want SELL, got %v", got)
	}
	if got, _ := strat.Signal(ctx, series(103, 102, 101, 100)); got != types.DirectionBuy {
		t.Errorf("straight fall is oversold, want BUY, got %v", got)
	}
	if got, _ := strat.Signal(ctx, series(100, 101)); got != types.DirectionHold {
		t.Errorf("short history should hold, got %v", got)
	}
}

func TestWithParamsValidation(t *testing.T) {
	tests := []struct {
		name    string
		strat   engine.Strategy
		params  map[string]float64
		wantErr bool
	}{
		{"sma valid", NewSMACrossover(10, 30), map[string]float64{"fast": 5, "slow": 20}, false},
		{"sma fast >= slow", NewSMACrossover(10, 30), map[string]float64{"fast": 30}, true},
		{"momentum negative threshold", NewMomentum(20, 0.05), map[string]float64{"threshold": -1}, true},
		{"rsi inverted bands", NewRSI(14, 30, 70), map[string]float64{"oversold": 80}, true},
		{"mean reversion valid", NewMeanReversion(20, 2), map[string]float64{"window": 10, "num_std": 1.5}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := tc.strat.WithParams(tc.params)
			if tc.wantErr {
				if !errors.Is(err, InvalidParamsErr) {
					t.Errorf("err = %v, want InvalidParamsErr", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("WithParams: %v", err)
			}
			if next == tc.strat {
				t.Error("WithParams must return a copy")
			}
		})
	}
}

// The rendered source round-trips through the optimizer's extraction scan.
func TestSourceIsScannable(t *testing.T) {
	strat := NewSMACrossover(10, 30)
	src := strat.Source()

	rebound, err := strat.WithParams(map[string]float64{"fast": 12})
	if err != nil {
		t.Fatalf("WithParams: %v", err)
	}
	if rebound.Source() == src {
		t.Error("source did not reflect new params")
	}
}
