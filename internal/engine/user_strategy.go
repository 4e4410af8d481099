package engine

import (
	"backsim/types"
	"context"
	"errors"
)

var SandboxUnavailableErr = errors.New("no sandbox runner configured for user strategy")

// UserStrategy carries arbitrary signal-generating source supplied as data.
// Evaluation is delegated entirely to an external SandboxRunner; the engine
// never interprets the source beyond the numeric-assignment scan the
// optimizer performs.
type UserStrategy struct {
	name   string
	source string
	runner SandboxRunner
}

func NewUserStrategy(name, source string, runner SandboxRunner) *UserStrategy {
	return &UserStrategy{name: name, source: source, runner: runner}
}

func (s *UserStrategy) Name() string   { return s.name }
func (s *UserStrategy) Source() string { return s.source }

func (s *UserStrategy) Signal(ctx context.Context, history []types.Candle) (types.Direction, error) {
	if s.runner == nil {
		return types.DirectionHold, SandboxUnavailableErr
	}
	return s.runner.Evaluate(ctx, s.source, history)
}

// WithParams returns a copy whose source has the matching numeric literals
// rewritten. The original strategy is never mutated.
func (s *UserStrategy) WithParams(params map[string]float64) (Strategy, error) {
	return &UserStrategy{
		name:   s.name,
		source: rewriteParams(s.source, params),
		runner: s.runner,
	}, nil
}
