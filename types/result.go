package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type EquityPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type DrawdownPoint struct {
	Date            time.Time `json:"date"`
	DrawdownPercent float64   `json:"drawdownPercent"`
}

// InstrumentPerformance aggregates realized activity for one symbol
// over a full simulation.
type InstrumentPerformance struct {
	Symbol          string          `json:"symbol"`
	TotalTrades     int             `json:"totalTrades"`
	BuyCount        int             `json:"buyCount"`
	SellCount       int             `json:"sellCount"`
	BuyQuantity     int64           `json:"buyQuantity"`
	SellQuantity    int64           `json:"sellQuantity"`
	AvgBuyPrice     decimal.Decimal `json:"avgBuyPrice"`
	AvgSellPrice    decimal.Decimal `json:"avgSellPrice"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	RealizedPnL     decimal.Decimal `json:"realizedPnl"`
	ReturnPercent   float64         `json:"returnPercent"`
}

// BacktestResult is the flat, serialization-ready record produced by one
// simulation run. It holds no references back into engine internals.
type BacktestResult struct {
	StrategyName string          `json:"strategyName"`
	Symbols      []string        `json:"symbols"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	InitialCash  decimal.Decimal `json:"initialCash"`
	FinalValue   decimal.Decimal `json:"finalValue"`

	SharpeRatio      float64 `json:"sharpeRatio"`
	SortinoRatio     float64 `json:"sortinoRatio"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	WinRate          float64 `json:"winRate"`
	TotalReturn      float64 `json:"totalReturn"`
	TotalTrades      int     `json:"totalTrades"`

	EquityCurve    []EquityPoint           `json:"equityCurve"`
	DrawdownSeries []DrawdownPoint         `json:"drawdownSeries"`
	Trades         []Trade                 `json:"trades"`
	Instruments    []InstrumentPerformance `json:"instruments"`
}

// CombinationResult records the outcome of a single optimizer combination.
// Exactly one of Result and Error is meaningful.
type CombinationResult struct {
	Params map[string]float64 `json:"params"`
	Result *BacktestResult    `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type OptimizationResult struct {
	SweepID           string              `json:"sweepId"`
	Metric            string              `json:"metric"`
	BestParams        map[string]float64  `json:"bestParams"`
	BestMetricValue   float64             `json:"bestMetricValue"`
	BestResult        *BacktestResult     `json:"bestResult,omitempty"`
	TotalCombinations int                 `json:"totalCombinations"`
	Results           []CombinationResult `json:"results"`
}
