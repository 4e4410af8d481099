package engine

import (
	"backsim/types"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	StrategyNotFoundErr = errors.New("strategy not found")
	NoDataAvailableErr  = errors.New("no price data available")
	NoCommonDatesErr    = errors.New("instruments share no common trading dates")
)

// Engine replays strategy signals over historical prices, date by date, and
// produces a flat result record. Each Run owns its portfolio exclusively;
// the only state shared between concurrent runs is the immutable price data
// behind the provider.
type Engine struct {
	provider DataProvider
	logger   *slog.Logger
}

func NewEngine(provider DataProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, logger: logger}
}

type RunRequest struct {
	Strategy    Strategy
	Symbols     []string
	InitialCash decimal.Decimal
}

// instrumentFeed is one symbol's fully materialized series plus a
// forward-only cursor into it. The cursor never regresses; the date loop
// is strictly chronological.
type instrumentFeed struct {
	symbol  string
	candles []types.Candle
	byDay   map[time.Time]int
	cursor  int
}

// advanceTo moves the cursor forward to the candle traded on the given
// day. Days arrive ascending, so the cursor never moves back; candles on
// days the other instruments skip are walked past, not revisited.
func (f *instrumentFeed) advanceTo(day time.Time) (types.Candle, bool) {
	for f.cursor < len(f.candles) && f.candles[f.cursor].Day().Before(day) {
		f.cursor++
	}
	if f.cursor < len(f.candles) && f.candles[f.cursor].Day().Equal(day) {
		return f.candles[f.cursor], true
	}
	return types.Candle{}, false
}

// Run simulates the request and returns the assembled result. Setup
// failures abort immediately; a failed signal evaluation for one
// (date, instrument) slot is logged and treated as no signal.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*types.BacktestResult, error) {
	if req.Strategy == nil {
		return nil, StrategyNotFoundErr
	}
	if len(req.Symbols) == 0 {
		return nil, NoDataAvailableErr
	}

	feeds, err := e.loadFeeds(ctx, req.Symbols)
	if err != nil {
		return nil, err
	}

	days := commonDays(feeds)
	if len(days) == 0 {
		return nil, NoCommonDatesErr
	}

	pf := newPortfolio(req.InitialCash)
	equity := make([]types.EquityPoint, 0, len(days))

	for _, day := range days {
		closes := make(map[string]decimal.Decimal, len(feeds))

		// Instruments run in request order. Cash is allocated
		// sequentially within the day, so an earlier instrument can spend
		// cash a later one would have wanted; the ordering stays
		// deterministic so runs are reproducible.
		for _, feed := range feeds {
			candle, ok := feed.advanceTo(day)
			if !ok {
				continue
			}
			closes[feed.symbol] = candle.Close

			history := feed.candles[:feed.cursor+1]
			signal, err := req.Strategy.Signal(ctx, history)
			if err != nil {
				e.logger.Warn("signal evaluation failed, treating as no signal",
					"strategy", req.Strategy.Name(),
					"symbol", feed.symbol,
					"date", day.Format("2006-01-02"),
					"error", err)
				continue
			}
			if signal == types.DirectionHold {
				continue
			}

			reason := triggerReason(req.Strategy, history, signal)
			if err := pf.executeTrade(feed.symbol, signal, candle.Close, day, reason); err != nil {
				e.logger.Warn("trade rejected",
					"symbol", feed.symbol,
					"date", day.Format("2006-01-02"),
					"error", err)
			}
		}

		equity = append(equity, types.EquityPoint{Date: day, Value: pf.value(closes)})
	}

	instruments := attributePnL(pf.trades)

	values := make([]float64, len(equity))
	for i, p := range equity {
		values[i] = p.Value.InexactFloat64()
	}
	m := calcMetrics(values, pf.trades)

	return &types.BacktestResult{
		StrategyName:     req.Strategy.Name(),
		Symbols:          append([]string(nil), req.Symbols...),
		StartDate:        days[0],
		EndDate:          days[len(days)-1],
		InitialCash:      req.InitialCash,
		FinalValue:       equity[len(equity)-1].Value,
		SharpeRatio:      m.SharpeRatio,
		SortinoRatio:     m.SortinoRatio,
		AnnualizedReturn: m.AnnualizedReturn,
		MaxDrawdown:      m.MaxDrawdown,
		WinRate:          m.WinRate,
		TotalReturn:      m.TotalReturn,
		TotalTrades:      len(pf.trades),
		EquityCurve:      equity,
		DrawdownSeries:   drawdownSeries(equity),
		Trades:           pf.trades,
		Instruments:      instruments,
	}, nil
}

func (e *Engine) loadFeeds(ctx context.Context, symbols []string) ([]*instrumentFeed, error) {
	feeds := make([]*instrumentFeed, 0, len(symbols))
	for _, symbol := range symbols {
		candles, err := e.provider.GetSeries(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("load series for %s: %w", symbol, err)
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("%s: %w", symbol, NoDataAvailableErr)
		}

		byDay := make(map[time.Time]int, len(candles))
		for i, c := range candles {
			byDay[c.Day()] = i
		}
		feeds = append(feeds, &instrumentFeed{
			symbol:  symbol,
			candles: candles,
			byDay:   byDay,
		})
	}
	return feeds, nil
}

// commonDays intersects all instruments' trading dates, ascending.
func commonDays(feeds []*instrumentFeed) []time.Time {
	if len(feeds) == 0 {
		return nil
	}

	var days []time.Time
	for day := range feeds[0].byDay {
		shared := true
		for _, feed := range feeds[1:] {
			if _, ok := feed.byDay[day]; !ok {
				shared = false
				break
			}
		}
		if shared {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// drawdownSeries aligns one drawdown point with every equity point,
// measured against the running peak.
func drawdownSeries(equity []types.EquityPoint) []types.DrawdownPoint {
	out := make([]types.DrawdownPoint, 0, len(equity))
	peak := 0.0
	for _, p := range equity {
		v := p.Value.InexactFloat64()
		if v > peak {
			peak = v
		}
		dd := 0.0
		if peak > 0 {
			dd = sanitize((v - peak) / peak * 100)
		}
		out = append(out, types.DrawdownPoint{Date: p.Date, DrawdownPercent: dd})
	}
	return out
}
