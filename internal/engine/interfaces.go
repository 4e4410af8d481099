package engine

import (
	"backsim/types"
	"context"
)

// DataProvider supplies an already materialized, deduplicated, ascending
// price series for one symbol. The engine only reads; it never re-fetches
// or mutates what it is handed.
type DataProvider interface {
	GetSeries(ctx context.Context, symbol string) ([]types.Candle, error)
}

// Strategy turns a price-history slice ending at some date into a single
// directional signal for that date.
//
// Source returns the strategy's tunable parameters rendered as
// "name = value" lines. For user-supplied strategies this is the raw
// source text; for builtin strategies a canonical listing. Only the
// optimizer scans and rewrites it.
type Strategy interface {
	Name() string
	Source() string
	Signal(ctx context.Context, history []types.Candle) (types.Direction, error)
	WithParams(params map[string]float64) (Strategy, error)
}

// SandboxRunner evaluates user-supplied strategy source against a price
// history in an external sandbox. The engine never executes strategy code
// itself.
type SandboxRunner interface {
	Evaluate(ctx context.Context, source string, history []types.Candle) (types.Direction, error)
}
