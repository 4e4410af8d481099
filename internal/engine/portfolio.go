package engine

import (
	"backsim/types"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var NonPositivePriceErr = errors.New("trade price must be positive")

// commissionRate is 3 basis points of notional, floored at one currency unit.
var (
	commissionRate = decimal.NewFromFloat(0.0003)
	minCommission  = decimal.NewFromInt(1)
)

func commission(notional decimal.Decimal) decimal.Decimal {
	c := notional.Mul(commissionRate)
	if c.LessThan(minCommission) {
		return minCommission
	}
	return c
}

// portfolio is the mutable ledger for exactly one simulation run: cash,
// whole-share positions, and an append-only trade log. It is never shared
// across runs.
type portfolio struct {
	cash      decimal.Decimal
	positions map[string]int64
	trades    []types.Trade
}

func newPortfolio(initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		cash:      initialCash,
		positions: make(map[string]int64),
	}
}

// executeTrade applies one signal at the given price. Unaffordable buys and
// sells without a position are deliberate no-ops, not errors; a strategy is
// allowed to want more than the portfolio can fund.
func (p *portfolio) executeTrade(symbol string, signal types.Direction, price decimal.Decimal, date time.Time, reason string) error {
	if signal == types.DirectionHold {
		return nil
	}
	if !price.GreaterThan(decimal.Zero) {
		return NonPositivePriceErr
	}

	switch signal {
	case types.DirectionBuy:
		p.buy(symbol, price, date, reason)
	case types.DirectionSell:
		p.sell(symbol, price, date, reason)
	}
	return nil
}

// buy takes the largest whole-share quantity whose notional plus commission
// fits in cash, walking down from floor(cash/price).
func (p *portfolio) buy(symbol string, price decimal.Decimal, date time.Time, reason string) {
	shares := p.cash.Div(price).IntPart()
	for shares > 0 {
		notional := price.Mul(decimal.NewFromInt(shares))
		fee := commission(notional)
		if notional.Add(fee).LessThanOrEqual(p.cash) {
			break
		}
		shares--
	}
	if shares <= 0 {
		return
	}

	notional := price.Mul(decimal.NewFromInt(shares))
	fee := commission(notional)
	p.cash = p.cash.Sub(notional).Sub(fee)
	p.positions[symbol] += shares
	p.trades = append(p.trades, types.Trade{
		Date:       date,
		Symbol:     symbol,
		Side:       types.SideTypeBuy,
		Quantity:   shares,
		Price:      price,
		Commission: fee,
		Reason:     reason,
	})
}

// sell liquidates the entire position. Realized pnl is left nil here and
// resolved later by FIFO attribution over the full trade log.
func (p *portfolio) sell(symbol string, price decimal.Decimal, date time.Time, reason string) {
	qty := p.positions[symbol]
	if qty <= 0 {
		return
	}

	revenue := price.Mul(decimal.NewFromInt(qty))
	fee := commission(revenue)
	p.cash = p.cash.Add(revenue).Sub(fee)
	p.positions[symbol] = 0
	p.trades = append(p.trades, types.Trade{
		Date:       date,
		Symbol:     symbol,
		Side:       types.SideTypeSell,
		Quantity:   qty,
		Price:      price,
		Commission: fee,
		Reason:     reason,
	})
}

// value marks the portfolio to market with the given closing prices.
// Positions without a price contribute nothing.
func (p *portfolio) value(closes map[string]decimal.Decimal) decimal.Decimal {
	total := p.cash
	for symbol, qty := range p.positions {
		if qty == 0 {
			continue
		}
		last, ok := closes[symbol]
		if !ok {
			continue
		}
		total = total.Add(last.Mul(decimal.NewFromInt(qty)))
	}
	return total
}
