package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleCSV = `date,open,high,low,close,volume
2024-01-03,103,106,101,105,3000
2024-01-02,101,104,99,102,2000
2024-01-04,105,108,103,107,4000
`

func writeSeries(t *testing.T, dir, symbol, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVStoreGetSeries(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "AAPL", sampleCSV)

	store := NewCSVStore(dir)
	candles, err := store.GetSeries(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}

	if len(candles) != 3 {
		t.Fatalf("got %d candles, want 3", len(candles))
	}
	// sorted ascending regardless of file order
	for i := 1; i < len(candles); i++ {
		if !candles[i-1].Timestamp.Before(candles[i].Timestamp) {
			t.Fatalf("candles not ascending at %d", i)
		}
	}

	first := candles[0]
	if first.Symbol != "AAPL" {
		t.Errorf("symbol = %q", first.Symbol)
	}
	if !first.Timestamp.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %s, want 2024-01-02", first.Timestamp)
	}
	if !first.Close.Equal(decimal.NewFromInt(102)) {
		t.Errorf("first close = %s, want 102", first.Close)
	}
	if !first.Volume.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("first volume = %s, want 2000", first.Volume)
	}
}

func TestCSVStoreCaches(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "AAPL", sampleCSV)

	store := NewCSVStore(dir)
	if _, err := store.GetSeries(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first GetSeries: %v", err)
	}

	// Removing the file must not matter once the series is cached.
	if err := os.Remove(filepath.Join(dir, "AAPL.csv")); err != nil {
		t.Fatal(err)
	}
	candles, err := store.GetSeries(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("cached GetSeries: %v", err)
	}
	if len(candles) != 3 {
		t.Errorf("got %d candles from cache, want 3", len(candles))
	}
}

func TestCSVStoreMissingSymbol(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	if _, err := store.GetSeries(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCSVStoreEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "EMPTY", "date,open,high,low,close,volume\n")

	store := NewCSVStore(dir)
	_, err := store.GetSeries(context.Background(), "EMPTY")
	if !errors.Is(err, ErrNoCandles) {
		t.Errorf("err = %v, want ErrNoCandles", err)
	}
}

func TestCSVStoreBadRow(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "BAD", "date,open,high,low,close,volume\nnot-a-date,1,2,3,4,5\n")

	store := NewCSVStore(dir)
	if _, err := store.GetSeries(context.Background(), "BAD"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
