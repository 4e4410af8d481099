package repository

import (
	"backsim/types"
	"context"
	"fmt"
)

const getSeriesQuery = `
SELECT open, high, low, close, volume, ts
FROM daily_candles
WHERE symbol = $1
ORDER BY ts ASC`

// GetSeries returns the full daily series for a symbol, ascending by date.
func (db *Database) GetSeries(ctx context.Context, symbol string) ([]types.Candle, error) {
	rows, err := db.conn.Query(ctx, getSeriesQuery, symbol)
	if err != nil {
		return nil, fmt.Errorf("query candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		c := types.Candle{Symbol: symbol}
		if err := rows.Scan(&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan candle for %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoCandles)
	}
	return candles, nil
}
