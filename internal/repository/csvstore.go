package repository

import (
	"backsim/types"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

/*
CSV layout

One file per symbol at <dir>/<SYMBOL>.csv:

date,open,high,low,close,volume

Notes:
- date = "2006-01-02" (day precision)
- rows may be unordered on disk; loaded series are sorted ascending
- files are loaded once and cached; the store only ever reads
*/

const dateLayout = "2006-01-02"

// CSVStore is an offline DataProvider backed by per-symbol CSV files.
// Safe for concurrent reads.
type CSVStore struct {
	dir string

	mu     sync.RWMutex
	series map[string][]types.Candle
}

func NewCSVStore(dir string) *CSVStore {
	if dir == "" {
		dir = "."
	}
	return &CSVStore{
		dir:    dir,
		series: make(map[string][]types.Candle),
	}
}

func (s *CSVStore) GetSeries(_ context.Context, symbol string) ([]types.Candle, error) {
	s.mu.RLock()
	cached, ok := s.series[symbol]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	candles, err := s.load(symbol)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.series[symbol] = candles
	s.mu.Unlock()
	return candles, nil
}

func (s *CSVStore) load(symbol string) ([]types.Candle, error) {
	path := filepath.Join(s.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series for %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
	}

	// Skip the header row.
	var candles []types.Candle
	for i, rec := range records[1:] {
		c, err := parseCandleRow(symbol, rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoCandles)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

func parseCandleRow(symbol string, rec []string) (types.Candle, error) {
	if len(rec) < 6 {
		return types.Candle{}, fmt.Errorf("expected 6 columns, got %d", len(rec))
	}

	ts, err := time.ParseInLocation(dateLayout, rec[0], time.UTC)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse date %q: %w", rec[0], err)
	}

	fields := make([]decimal.Decimal, 5)
	for i, raw := range rec[1:6] {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return types.Candle{}, fmt.Errorf("parse column %d %q: %w", i+1, raw, err)
		}
		fields[i] = d
	}

	return types.Candle{
		Symbol:    symbol,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
		Timestamp: ts,
	}, nil
}
