package scoring

import "context"

// Noop always allows execution. It is the default Gate when the caller does
// not configure one.
type Noop struct{}

// Score implements Gate.
func (Noop) Score(context.Context, Request) (*Result, error) {
	return &Result{Allowed: true, TotalScore: 0, RiskLevel: RiskLow}, nil
}
