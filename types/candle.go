package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// Day returns the candle's trading date truncated to day precision in UTC.
// All date alignment across instruments is done on this value.
func (c Candle) Day() time.Time {
	y, m, d := c.Timestamp.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
