package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"
)

// Trade is one executed portfolio mutation. RealizedPnL and
// RealizedPnLPercent are nil on BUY trades and on SELL trades until
// attribution has matched them against their buy lots.
type Trade struct {
	Date               time.Time        `json:"date"`
	Symbol             string           `json:"symbol"`
	Side               Side             `json:"side"`
	Quantity           int64            `json:"quantity"`
	Price              decimal.Decimal  `json:"price"`
	Commission         decimal.Decimal  `json:"commission"`
	Reason             string           `json:"reason"`
	RealizedPnL        *decimal.Decimal `json:"realizedPnl,omitempty"`
	RealizedPnLPercent *float64         `json:"realizedPnlPercent,omitempty"`
}

// Notional is quantity times price, before commission.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
