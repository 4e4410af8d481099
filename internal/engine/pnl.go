package engine

import (
	"backsim/types"
	"sort"

	"github.com/shopspring/decimal"
)

// lot is one buy fill awaiting FIFO consumption. remaining counts down as
// sells are matched; commission is apportioned pro rata against whatever
// the lot still holds when it is consumed.
type lot struct {
	remaining  int64
	price      decimal.Decimal
	commission decimal.Decimal
}

// attributePnL FIFO-matches sell trades against buy lots per symbol, writes
// RealizedPnL / RealizedPnLPercent onto the SELL trades in place, and
// returns per-instrument aggregates sorted by symbol.
//
// Lots live in a per-symbol arena with a forward-only cursor; the cursor
// never regresses, so matching is O(n) amortized over the trade log.
func attributePnL(trades []types.Trade) []types.InstrumentPerformance {
	bySymbol := make(map[string][]int)
	var order []string
	for i, t := range trades {
		if _, ok := bySymbol[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], i)
	}
	sort.Strings(order)

	perf := make([]types.InstrumentPerformance, 0, len(order))
	for _, symbol := range order {
		perf = append(perf, attributeSymbol(symbol, trades, bySymbol[symbol]))
	}
	return perf
}

func attributeSymbol(symbol string, trades []types.Trade, idxs []int) types.InstrumentPerformance {
	var (
		lots   []lot
		cursor int

		buyCount, sellCount       int
		buyQty, sellQty           int64
		buyNotional, sellNotional decimal.Decimal
		totalCommission           decimal.Decimal
		realized                  decimal.Decimal
		costOfSoldShares          decimal.Decimal
	)

	for _, i := range idxs {
		t := &trades[i]
		totalCommission = totalCommission.Add(t.Commission)

		if t.Side == types.SideTypeBuy {
			buyCount++
			buyQty += t.Quantity
			buyNotional = buyNotional.Add(t.Notional())
			lots = append(lots, lot{
				remaining:  t.Quantity,
				price:      t.Price,
				commission: t.Commission,
			})
			continue
		}

		sellCount++
		sellQty += t.Quantity
		sellNotional = sellNotional.Add(t.Notional())

		revenue := t.Notional().Sub(t.Commission)

		// Clamp to what was actually bought. Over-selling cannot happen
		// with full-liquidation sells, but a malformed log must not panic;
		// missing lots are treated as zero cost.
		needed := t.Quantity
		var available int64
		for j := cursor; j < len(lots); j++ {
			available += lots[j].remaining
		}
		if needed > available {
			needed = available
		}

		cost := decimal.Zero
		for needed > 0 {
			l := &lots[cursor]
			if l.remaining <= needed {
				cost = cost.Add(l.price.Mul(decimal.NewFromInt(l.remaining))).Add(l.commission)
				needed -= l.remaining
				l.remaining = 0
				cursor++
				continue
			}
			// Partial consumption: pro-rate the lot's commission over the
			// shares taken.
			part := decimal.NewFromInt(needed)
			cost = cost.Add(l.price.Mul(part)).
				Add(l.commission.Mul(part).Div(decimal.NewFromInt(l.remaining)))
			l.remaining -= needed
			needed = 0
		}

		pnl := revenue.Sub(cost)
		realized = realized.Add(pnl)
		costOfSoldShares = costOfSoldShares.Add(cost)

		t.RealizedPnL = &pnl
		pct := 0.0
		if cost.GreaterThan(decimal.Zero) {
			pct = sanitize(pnl.Div(cost).InexactFloat64() * 100)
		}
		t.RealizedPnLPercent = &pct
	}

	p := types.InstrumentPerformance{
		Symbol:          symbol,
		TotalTrades:     buyCount + sellCount,
		BuyCount:        buyCount,
		SellCount:       sellCount,
		BuyQuantity:     buyQty,
		SellQuantity:    sellQty,
		TotalCommission: totalCommission,
		RealizedPnL:     realized,
	}
	if buyQty > 0 {
		p.AvgBuyPrice = buyNotional.Div(decimal.NewFromInt(buyQty))
	}
	if sellQty > 0 {
		p.AvgSellPrice = sellNotional.Div(decimal.NewFromInt(sellQty))
	}
	if costOfSoldShares.GreaterThan(decimal.Zero) {
		p.ReturnPercent = sanitize(realized.Div(costOfSoldShares).InexactFloat64() * 100)
	}
	return p
}
