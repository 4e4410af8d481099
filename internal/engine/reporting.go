package engine

import (
	"backsim/types"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// PrintReport writes a human-readable summary of a result to stdout.
func PrintReport(r *types.BacktestResult) {
	fmt.Println("===== Backtest Report =====")
	fmt.Printf("Strategy:              %s\n", r.StrategyName)
	fmt.Printf("Period:                %s -> %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Printf("Total Trades:          %d\n", r.TotalTrades)

	fmt.Println("\n-- Performance --")
	fmt.Printf("Initial Cash:          %s\n", r.InitialCash)
	fmt.Printf("Final Value:           %s\n", r.FinalValue)
	fmt.Printf("Total Return:          %.2f%%\n", r.TotalReturn)
	fmt.Printf("Annualized Return:     %.2f%%\n", r.AnnualizedReturn)

	fmt.Println("\n-- Risk --")
	fmt.Printf("Sharpe Ratio:          %.4f\n", r.SharpeRatio)
	fmt.Printf("Sortino Ratio:         %.4f\n", r.SortinoRatio)
	fmt.Printf("Max Drawdown:          %.2f%%\n", r.MaxDrawdown)
	fmt.Printf("Win Rate:              %.2f%%\n", r.WinRate)

	if len(r.Instruments) > 0 {
		fmt.Println("\n-- Per Instrument --")
		for _, p := range r.Instruments {
			fmt.Printf("%-8s trades=%d realizedPnL=%s return=%.2f%% fees=%s\n",
				p.Symbol, p.TotalTrades, p.RealizedPnL, p.ReturnPercent, p.TotalCommission)
		}
	}
	fmt.Println("===========================")
}

// WriteTradesCSVFile writes the trade log to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, trades)
}

// writeTradesCSV writes trades to any io.Writer as CSV. Pass os.Stdout for
// debugging, or a file.
func writeTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date",
		"symbol",
		"side",
		"quantity",
		"price",
		"commission",
		"reason",
		"realized_pnl",
		"realized_pnl_pct",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		pnl, pnlPct := "", ""
		if t.RealizedPnL != nil {
			pnl = t.RealizedPnL.String()
		}
		if t.RealizedPnLPercent != nil {
			pnlPct = fmt.Sprintf("%.4f", *t.RealizedPnLPercent)
		}
		record := []string{
			t.Date.Format(time.RFC3339),
			t.Symbol,
			string(t.Side),
			fmt.Sprintf("%d", t.Quantity),
			t.Price.String(),
			t.Commission.String(),
			t.Reason,
			pnl,
			pnlPct,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
