// Package scoring implements the Scoring Gate: an optional, asynchronous
// pre-execution risk check that can veto a run before any AgentScript is
// evaluated. It mirrors the pluggable-backend shape of features/policy in
// goa-ai, where a small interface admits a no-op, a heuristic, and cached
// wrappers around a slower upstream check.
package scoring

import "context"

// Signal is one contributing factor behind a Result's TotalScore.
type Signal struct {
	Name        string
	Score       float64
	Description string
}

// Result is the outcome of a scoring pass over a piece of AgentScript source.
type Result struct {
	Allowed    bool
	TotalScore float64
	RiskLevel  string
	Signals    []Signal
}

// Risk level buckets assigned from TotalScore by the heuristic Gate, and
// reused by any Gate implementation that wants consistent labels.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Request carries everything a Gate needs to score a candidate execution.
type Request struct {
	// Source is the transformed AgentScript source (post-rewrite, the form
	// that will actually execute), matching what a cache keyed by content
	// hash should key on.
	Source string
	// SecurityLevel names the caller's configured security level, since a
	// Gate may apply a stricter score threshold under "strict".
	SecurityLevel string
	// Globals lists the names of globals exposed to this execution, so a
	// Gate can penalize unusually broad access.
	Globals []string
}

// Gate scores a candidate execution and may veto it before any AgentScript
// runs. Score must be safe for concurrent use; the Enclave may invoke it
// from multiple concurrent Run calls.
type Gate interface {
	Score(ctx context.Context, req Request) (*Result, error)
}

// GateFunc adapts a plain function to the Gate interface.
type GateFunc func(ctx context.Context, req Request) (*Result, error)

// Score implements Gate.
func (f GateFunc) Score(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }
